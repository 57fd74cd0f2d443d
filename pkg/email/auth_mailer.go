package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mofumofu/authcore/pkg/email/templates"
)

// AuthMailer renders and sends the account emails: address verification and
// password reset.
type AuthMailer struct {
	sender EmailSender
	cfg    Config
}

func NewAuthMailer(sender EmailSender, cfg Config) *AuthMailer {
	return &AuthMailer{sender: sender, cfg: cfg}
}

// SendVerification mails a link carrying the verification token.
func (m *AuthMailer) SendVerification(ctx context.Context, to, name, token string) error {
	link, err := m.link(m.cfg.VerifyEmailPath, token)
	if err != nil {
		return err
	}
	body, err := templates.Render(ctx, templates.VerifyEmail(name, link))
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrFailedToSendEmail, err)
	}
	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  "Confirm your email address",
		BodyHTML: body,
		Tag:      "email-verification",
	})
}

// SendPasswordReset mails a link carrying the reset token.
func (m *AuthMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	link, err := m.link(m.cfg.ResetPasswordPath, token)
	if err != nil {
		return err
	}
	body, err := templates.Render(ctx, templates.ResetPassword(name, link))
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrFailedToSendEmail, err)
	}
	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  "Reset your password",
		BodyHTML: body,
		Tag:      "password-reset",
	})
}

func (m *AuthMailer) link(path, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(m.cfg.AppBaseURL, "/") + path)
	if err != nil {
		return "", fmt.Errorf("%w: app base url: %v", ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
