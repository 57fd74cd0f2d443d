package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie defaults.
type Config struct {
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`
}

// Options converts the config into default cookie options.
// Cookies are always HttpOnly. SameSite=None forces Secure, as browsers require.
func (c Config) Options() Options {
	o := Options{
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(c.SameSite),
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == http.SameSiteNoneMode {
		o.Secure = true
	}
	return o
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
