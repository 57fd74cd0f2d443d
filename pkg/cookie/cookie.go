package cookie

import (
	"errors"
	"net/http"
)

// Manager writes and reads plain cookies with shared defaults.
type Manager struct {
	defaults Options
}

// New creates a manager. opts adjust the defaults for every cookie.
func New(defaults Options, opts ...Option) *Manager {
	return &Manager{defaults: applyOptions(defaults, opts)}
}

// NewFromConfig creates a manager from Config.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(cfg.Options(), opts...)
}

// Set writes a cookie. opts override the manager defaults for this cookie only.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	o := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}

// Get returns the cookie value or ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete expires the cookie on the client. The path and domain must match
// the ones used by Set for browsers to drop it.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	o := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   -1,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}
