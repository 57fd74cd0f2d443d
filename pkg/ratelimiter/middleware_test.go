package ratelimiter_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/ratelimiter"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func remoteAddrKey(r *http.Request) string { return r.RemoteAddr }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("sets headers and denies after capacity", func(t *testing.T) {
		t.Parallel()
		limiter, _ := newLimiter(t, newFakeClock())
		h := ratelimiter.Middleware(limiter, remoteAddrKey)(okHandler())

		for range testConfig.Capacity {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("custom limited handler", func(t *testing.T) {
		t.Parallel()
		limiter, _ := newLimiter(t, newFakeClock())
		var called bool
		h := ratelimiter.Middleware(limiter, remoteAddrKey,
			ratelimiter.WithLimitedHandler(func(w http.ResponseWriter, _ *http.Request, res *ratelimiter.Result) {
				called = true
				assert.False(t, res.Allowed())
				w.WriteHeader(http.StatusTeapot)
			}),
		)(okHandler())

		var rec *httptest.ResponseRecorder
		for range testConfig.Capacity + 1 {
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		}
		assert.True(t, called)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("store failure uses error handler", func(t *testing.T) {
		t.Parallel()
		store := &mockStore{}
		store.On("ConsumeTokens", mock.Anything, mock.Anything, 1, testConfig).
			Return(0, time.Time{}, errors.New("down"))
		limiter, err := ratelimiter.NewBucket(store, testConfig)
		require.NoError(t, err)

		h := ratelimiter.Middleware(limiter, remoteAddrKey,
			ratelimiter.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}),
		)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestComposite(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Equal(t, "", ratelimiter.Composite()(req))
	assert.Equal(t, "signin", ratelimiter.Composite(ratelimiter.Static("signin"))(req))
	assert.Equal(t, "signin:"+req.RemoteAddr,
		ratelimiter.Composite(ratelimiter.Static("signin"), ratelimiter.Static(""), remoteAddrKey)(req))

	long := ratelimiter.Composite(ratelimiter.Static(strings.Repeat("x", 80)))(req)
	assert.LessOrEqual(t, len(long), 64)
	assert.NotEqual(t, strings.Repeat("x", 80), long)
}
