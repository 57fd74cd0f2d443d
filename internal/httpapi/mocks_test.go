package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/internal/httpapi"
	"github.com/mofumofu/authcore/internal/storage/memory"
	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/cookie"
	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/password"
)

const refreshTTL = 24 * time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockNotifier is a mock implementation of auth.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerification(ctx context.Context, to, name, token string) error {
	return m.Called(ctx, to, name, token).Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.Called(ctx, to, name, token).Error(0)
}

func (m *MockNotifier) lastToken(t *testing.T, method string) string {
	t.Helper()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			return m.Calls[i].Arguments.String(3)
		}
	}
	require.Failf(t, "no call", "%s was not called", method)
	return ""
}

// stubAdapter answers Exchange from a fixed code table.
type stubAdapter struct {
	provider auth.Provider
	codes    map[string]auth.Identity
}

func (a stubAdapter) Provider() auth.Provider { return a.provider }

func (a stubAdapter) AuthCodeURL(state string) string { return "https://provider.test/?state=" + state }

func (a stubAdapter) Exchange(_ context.Context, code string) (auth.Identity, error) {
	id, ok := a.codes[code]
	if !ok {
		return auth.Identity{}, errors.New("bad verification code")
	}
	return id, nil
}

// testEnv serves the API over memory storage with a fake clock.
type testEnv struct {
	handler  http.Handler
	svc      *auth.Service
	store    *memory.Store
	codec    *jwt.Codec
	clock    *fakeClock
	notifier *MockNotifier
}

func newTestEnv(t *testing.T, opts ...httpapi.Option) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := jwt.New(jwt.Config{
		Secret:               "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      refreshTTL,
		EmailVerificationTTL: time.Hour,
		PasswordResetTTL:     time.Hour,
	}, jwt.WithClock(clock.Now))
	require.NoError(t, err)

	notifier := &MockNotifier{}
	notifier.On("SendVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	oauth, err := auth.NewOAuthClientBuilder().
		Adapter(stubAdapter{provider: auth.ProviderGitHub, codes: map[string]auth.Identity{
			"gh-code": {ProviderUserID: "4242", Email: "octo@x.com", EmailVerified: true, Name: "Octo"},
		}}).
		Adapter(stubAdapter{provider: auth.ProviderGoogle, codes: map[string]auth.Identity{
			"g-code": {ProviderUserID: "g-77", Email: "octo@gmail.test", EmailVerified: true, Name: "Octo G"},
		}}).
		Build()
	require.NoError(t, err)

	store := memory.New()
	svc := auth.NewService(store, codec, password.NewHasher(password.WithCost(4)),
		auth.WithClock(clock.Now),
		auth.WithNotifier(notifier),
		auth.WithOAuthClient(oauth),
	)
	t.Cleanup(svc.Wait)

	cookies := cookie.NewFromConfig(cookie.Config{Path: "/", SameSite: "lax"})
	gate := auth.NewGate(codec, append(httpapi.GateOptions(cookies, ""), auth.WithGateClock(clock.Now))...)

	base := []httpapi.Option{httpapi.WithCookies(cookies), httpapi.WithRefreshTTL(refreshTTL)}
	api := httpapi.New(svc, gate, append(base, opts...)...)

	return &testEnv{handler: api.Routes(), svc: svc, store: store, codec: codec, clock: clock, notifier: notifier}
}

type reqOption func(*http.Request)

func bearer(token string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) reqOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set("User-Agent", "httpapi-test")
	for _, opt := range opts {
		opt(r)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

// signUp registers a user and returns the access token and refresh cookie.
func (e *testEnv) signUp(t *testing.T, handle, email, pass string) (string, *http.Cookie) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/sign_up", map[string]string{
		"name": "User " + handle, "handle": handle, "email": email, "password": pass,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["access_token"].(string), refreshCookie(t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.DefaultRefreshCookie {
			return c
		}
	}
	require.Fail(t, "refresh cookie not set")
	return nil
}
