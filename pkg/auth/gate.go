package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/logger"
)

// DefaultRefreshCookie is the cookie that carries the refresh token.
const DefaultRefreshCookie = "refresh_token"

// AccessHandler serves a request that carries a valid access token.
type AccessHandler func(w http.ResponseWriter, r *http.Request, claims jwt.AccessClaims)

// OptionalAccessHandler serves a request that may carry an access token.
// claims is nil when the token is absent or invalid.
type OptionalAccessHandler func(w http.ResponseWriter, r *http.Request, claims *jwt.AccessClaims)

// RefreshHandler serves a request that carries a decodable refresh cookie.
type RefreshHandler func(w http.ResponseWriter, r *http.Request, cred RefreshCredential)

// Gate turns token checks into typed handler parameters. It only decodes
// tokens; it never reads storage.
type Gate struct {
	codec        *jwt.Codec
	cookieName   string
	bearer       jwt.TokenExtractorFunc
	cookie       jwt.TokenExtractorFunc
	now          func() time.Time
	logger       *slog.Logger
	unauthorized func(w http.ResponseWriter, r *http.Request, err error)
	signedOut    func(w http.ResponseWriter, r *http.Request)
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithUnauthorizedResponder sets the response written when Access rejects a request.
func WithUnauthorizedResponder(fn func(w http.ResponseWriter, r *http.Request, err error)) GateOption {
	return func(g *Gate) {
		if fn != nil {
			g.unauthorized = fn
		}
	}
}

// WithSignedOutResponder sets the response written when Refresh finds no
// usable cookie.
func WithSignedOutResponder(fn func(w http.ResponseWriter, r *http.Request)) GateOption {
	return func(g *Gate) {
		if fn != nil {
			g.signedOut = fn
		}
	}
}

// WithRefreshCookieName overrides DefaultRefreshCookie.
func WithRefreshCookieName(name string) GateOption {
	return func(g *Gate) {
		if name != "" {
			g.cookieName = name
		}
	}
}

// WithGateClock overrides the clock used for access token expiry.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithGateLogger sets the gate logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a Gate. Without responders it answers 401 with an empty
// body and clears the refresh cookie with 204.
func NewGate(codec *jwt.Codec, opts ...GateOption) *Gate {
	g := &Gate{
		codec:      codec,
		cookieName: DefaultRefreshCookie,
		bearer:     jwt.BearerTokenExtractor,
		now:        time.Now,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cookie = jwt.CookieTokenExtractor(g.cookieName)
	if g.unauthorized == nil {
		g.unauthorized = func(w http.ResponseWriter, _ *http.Request, _ error) {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}
	if g.signedOut == nil {
		g.signedOut = func(w http.ResponseWriter, _ *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: g.cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
			w.WriteHeader(http.StatusNoContent)
		}
	}
	return g
}

// RefreshCookieName returns the name of the refresh cookie.
func (g *Gate) RefreshCookieName() string {
	return g.cookieName
}

// AccessClaims extracts and checks the bearer token of r.
func (g *Gate) AccessClaims(r *http.Request) (jwt.AccessClaims, error) {
	raw, err := g.bearer(r)
	if err != nil {
		return jwt.AccessClaims{}, ErrUnauthorized
	}
	claims, err := g.codec.DecodeAccess(raw)
	if err != nil {
		return jwt.AccessClaims{}, ErrInvalidToken
	}
	if claims.Expired(g.now()) {
		return jwt.AccessClaims{}, ErrTokenExpired
	}
	return claims, nil
}

// Access requires a valid, unexpired access token.
func (g *Gate) Access(h AccessHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.AccessClaims(r)
		if err != nil {
			if !errors.Is(err, ErrUnauthorized) {
				g.logger.DebugContext(r.Context(), "access token rejected", logger.Error(err))
			}
			g.unauthorized(w, r, err)
			return
		}
		h(w, r, claims)
	})
}

// OptionalAccess passes the access claims when present and valid, nil otherwise.
func (g *Gate) OptionalAccess(h OptionalAccessHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.AccessClaims(r)
		if err != nil {
			h(w, r, nil)
			return
		}
		h(w, r, &claims)
	})
}

// Refresh decodes the refresh cookie. Expiry is left to Service.Refresh so
// that the rotation path reports ErrTokenExpired itself.
func (g *Gate) Refresh(h RefreshHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := g.cookie(r)
		if err != nil {
			g.signedOut(w, r)
			return
		}
		claims, err := g.codec.DecodeRefresh(raw)
		if err != nil {
			g.logger.DebugContext(r.Context(), "refresh cookie rejected", logger.Error(err))
			g.signedOut(w, r)
			return
		}
		h(w, r, RefreshCredential{Token: raw, Claims: claims})
	})
}
