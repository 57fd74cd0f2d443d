package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// VerifyEmail is the body of the address confirmation message.
func VerifyEmail(name, link string) templ.Component {
	return layout("Confirm your email address", name,
		"Please confirm this address to finish setting up your account.",
		"Confirm email", link,
		"If you did not create an account, you can ignore this message.")
}

// ResetPassword is the body of the password reset message.
func ResetPassword(name, link string) templ.Component {
	return layout("Reset your password", name,
		"We received a request to reset the password for your account.",
		"Choose a new password", link,
		"If you did not request a reset, no action is needed. The link expires soon.")
}

func layout(title, name, intro, action, link, footer string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		greeting := "Hello,"
		if name != "" {
			greeting = "Hello " + name + ","
		}
		href := string(templ.URL(link))

		parts := []string{
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`, templ.EscapeString(title), `</title></head>`,
			`<body style="font-family:sans-serif;color:#1f2937;max-width:560px;margin:0 auto;padding:24px">`,
			`<p>`, templ.EscapeString(greeting), `</p>`,
			`<p>`, templ.EscapeString(intro), `</p>`,
			`<p><a href="`, templ.EscapeString(href), `" style="display:inline-block;padding:10px 18px;background:#2563eb;color:#fff;border-radius:6px;text-decoration:none">`,
			templ.EscapeString(action), `</a></p>`,
			`<p style="font-size:12px;color:#6b7280">`, templ.EscapeString(footer), `</p>`,
			`</body></html>`,
		}
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}
