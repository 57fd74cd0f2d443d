// Package httpapi exposes the auth service over JSON HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/binder"
	"github.com/mofumofu/authcore/pkg/clientip"
	"github.com/mofumofu/authcore/pkg/cookie"
	"github.com/mofumofu/authcore/pkg/environment"
	"github.com/mofumofu/authcore/pkg/httpserver"
	"github.com/mofumofu/authcore/pkg/logger"
	"github.com/mofumofu/authcore/pkg/ratelimiter"
)

// DefaultRefreshTTL matches the default refresh token lifetime.
const DefaultRefreshTTL = 720 * time.Hour

// API holds the HTTP handlers of the auth service.
type API struct {
	svc        *auth.Service
	gate       *auth.Gate
	cookies    *cookie.Manager
	clientIP   *clientip.Resolver
	limiter    ratelimiter.RateLimiter
	env        environment.Environment
	logger     *slog.Logger
	bind       binder.Func
	refreshTTL time.Duration
	checks     []httpserver.Check
	mediaURL   string
	mediaDir   string
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the API logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithEnvironment sets the environment attached to every request.
func WithEnvironment(env environment.Environment) Option {
	return func(a *API) {
		a.env = env.Normalize()
	}
}

// WithCookies sets the manager used for the refresh cookie.
func WithCookies(m *cookie.Manager) Option {
	return func(a *API) {
		if m != nil {
			a.cookies = m
		}
	}
}

// WithClientIP sets the resolver for client addresses.
func WithClientIP(res *clientip.Resolver) Option {
	return func(a *API) {
		if res != nil {
			a.clientIP = res
		}
	}
}

// WithRateLimiter limits the credential endpoints per client address.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(a *API) {
		a.limiter = l
	}
}

// WithRefreshTTL sets the refresh cookie Max-Age.
func WithRefreshTTL(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.refreshTTL = d
		}
	}
}

// WithReadinessChecks adds dependency checks to /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(a *API) {
		a.checks = append(a.checks, checks...)
	}
}

// WithMedia serves files under dir at urlPrefix. It backs avatars kept on
// local disk.
func WithMedia(urlPrefix, dir string) Option {
	return func(a *API) {
		a.mediaURL = "/" + strings.Trim(urlPrefix, "/")
		a.mediaDir = dir
	}
}

// New creates the API. The refresh cookie is written under the gate's cookie
// name; build the gate with GateOptions so both sides agree on it.
func New(svc *auth.Service, gate *auth.Gate, opts ...Option) *API {
	a := &API{
		svc:        svc,
		gate:       gate,
		cookies:    cookie.New(cookie.Config{}.Options()),
		clientIP:   clientip.NewResolver(),
		env:        environment.Production,
		logger:     logger.Discard(),
		bind:       binder.JSON(),
		refreshTTL: DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(environment.Middleware(a.env))
	r.Use(clientip.Middleware(a.clientIP))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(a.logger, 2*time.Second, a.checks...))

	r.Route("/auth", func(r chi.Router) {
		r.With(a.rateLimit("sign_up")).Post("/sign_up", a.signUp)
		r.With(a.rateLimit("sign_in")).Post("/sign_in", a.signIn)
		r.Method(http.MethodPost, "/refresh", a.gate.Refresh(a.refresh))
		r.Method(http.MethodPost, "/sign_out", a.gate.Refresh(a.signOut))

		r.Post("/google", a.oauthSignIn(auth.ProviderGoogle))
		r.Post("/github", a.oauthSignIn(auth.ProviderGitHub))
		r.Method(http.MethodPost, "/link_oauth", a.gate.Access(a.linkOAuth))
		r.Method(http.MethodDelete, "/unlink-oauth", a.gate.Access(a.unlinkOAuth))
		r.Method(http.MethodGet, "/oauth-connections", a.gate.Access(a.oauthConnections))

		r.Method(http.MethodPost, "/set_password", a.gate.Access(a.setPassword))
		r.Method(http.MethodGet, "/sessions", a.gate.Access(a.sessions))
		r.Method(http.MethodGet, "/whoami", a.gate.OptionalAccess(a.whoami))

		r.Post("/verify_email", a.verifyEmail)
		r.With(a.rateLimit("resend_verification")).Post("/resend_verification", a.resendVerification)
		r.With(a.rateLimit("forgot_password")).Post("/forgot_password", a.forgotPassword)
		r.Post("/reset_password", a.resetPassword)
	})

	r.Method(http.MethodPost, "/admin/sessions/cleanup", a.gate.Access(a.cleanupSessions))

	if a.mediaDir != "" && a.mediaURL != "/" {
		r.Handle(a.mediaURL+"/*", http.StripPrefix(a.mediaURL, http.FileServer(filesOnly{http.Dir(a.mediaDir)})))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method_not_allowed"})
	})
	return r
}

// GateOptions returns gate responders that answer in the API's JSON shape
// and clear the refresh cookie through the API's cookie manager.
func GateOptions(cookies *cookie.Manager, cookieName string) []auth.GateOption {
	if cookieName == "" {
		cookieName = auth.DefaultRefreshCookie
	}
	return []auth.GateOption{
		auth.WithRefreshCookieName(cookieName),
		auth.WithUnauthorizedResponder(func(w http.ResponseWriter, _ *http.Request, err error) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: toHTTPError(err).Key})
		}),
		auth.WithSignedOutResponder(func(w http.ResponseWriter, _ *http.Request) {
			cookies.Delete(w, cookieName)
			w.WriteHeader(http.StatusNoContent)
		}),
	}
}

// rateLimit limits a route per client address. It is a no-op without a limiter.
func (a *API) rateLimit(route string) func(http.Handler) http.Handler {
	if a.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	key := ratelimiter.Composite(
		ratelimiter.Static(route),
		func(r *http.Request) string { return clientip.FromContext(r.Context()) },
	)
	return ratelimiter.Middleware(a.limiter, key,
		ratelimiter.WithLimitedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
			writeJSON(w, ErrTooManyRequests.Code, errorBody{Error: ErrTooManyRequests.Key})
		}),
		ratelimiter.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			a.fail(w, r, err)
		}),
	)
}

// filesOnly hides directories so stored keys cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func (a *API) meta(r *http.Request) auth.ClientMeta {
	return auth.ClientMeta{
		IP:        clientip.FromContext(r.Context()),
		UserAgent: r.UserAgent(),
	}
}
