package auth_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/internal/storage/memory"
	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/password"
	"github.com/mofumofu/authcore/pkg/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testJWTConfig() jwt.Config {
	return jwt.Config{
		Secret:               testSecret,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		EmailVerificationTTL: time.Hour,
		PasswordResetTTL:     time.Hour,
	}
}

// fakeClock is a settable clock shared by the codec, the service and the gate.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
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
	args := m.Called(ctx, to, name, token)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, to, name, token string) error {
	args := m.Called(ctx, to, name, token)
	return args.Error(0)
}

// lastToken returns the token argument of the most recent call to method.
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

// MockAvatarImporter is a mock implementation of auth.AvatarImporter.
type MockAvatarImporter struct {
	mock.Mock
}

func (m *MockAvatarImporter) Import(ctx context.Context, userID uuid.UUID, sourceURL string) (string, error) {
	args := m.Called(ctx, userID, sourceURL)
	return args.String(0), args.Error(1)
}

// fakeAdapter answers Exchange from a fixed code table.
type fakeAdapter struct {
	provider auth.Provider
	codes    map[string]auth.Identity
	err      error
}

func (a *fakeAdapter) Provider() auth.Provider { return a.provider }

func (a *fakeAdapter) AuthCodeURL(state string) string {
	return "https://" + string(a.provider) + ".test/authorize?state=" + state
}

func (a *fakeAdapter) Exchange(_ context.Context, code string) (auth.Identity, error) {
	if a.err != nil {
		return auth.Identity{}, a.err
	}
	id, ok := a.codes[code]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

// countingStorage counts transactions and session lookups and lets tests
// inject insert failures.
type countingStorage struct {
	auth.Storage
	txs             *atomic.Int64
	lookups         *atomic.Int64
	createUserFails *atomic.Int64
	createUserErr   error
}

func newCountingStorage(inner auth.Storage) *countingStorage {
	return &countingStorage{
		Storage:         inner,
		txs:             new(atomic.Int64),
		lookups:         new(atomic.Int64),
		createUserFails: new(atomic.Int64),
	}
}

func (c *countingStorage) wrap(inner auth.Storage) *countingStorage {
	return &countingStorage{
		Storage:         inner,
		txs:             c.txs,
		lookups:         c.lookups,
		createUserFails: c.createUserFails,
		createUserErr:   c.createUserErr,
	}
}

func (c *countingStorage) InTx(ctx context.Context, fn func(tx auth.Storage) error) error {
	c.txs.Add(1)
	return c.Storage.InTx(ctx, func(tx auth.Storage) error {
		return fn(c.wrap(tx))
	})
}

func (c *countingStorage) Sessions() session.Store {
	return countingSessions{Store: c.Storage.Sessions(), lookups: c.lookups}
}

func (c *countingStorage) CreateUser(ctx context.Context, u *auth.User) error {
	if c.createUserErr != nil && c.createUserFails.Add(-1) >= 0 {
		return c.createUserErr
	}
	return c.Storage.CreateUser(ctx, u)
}

type countingSessions struct {
	session.Store
	lookups *atomic.Int64
}

func (c countingSessions) FindByJTIAndToken(ctx context.Context, jti, token string) (*session.Record, error) {
	c.lookups.Add(1)
	return c.Store.FindByJTIAndToken(ctx, jti, token)
}

// harness wires a Service over memory storage with a fake clock.
type harness struct {
	svc      *auth.Service
	store    *memory.Store
	storage  *countingStorage
	codec    *jwt.Codec
	clock    *fakeClock
	notifier *MockNotifier
}

func newHarness(t *testing.T, opts ...auth.ServiceOption) *harness {
	t.Helper()
	clock := newFakeClock()
	codec, err := jwt.New(testJWTConfig(), jwt.WithClock(clock.Now))
	require.NoError(t, err)

	notifier := &MockNotifier{}
	notifier.On("SendVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	store := memory.New()
	storage := newCountingStorage(store)
	hasher := password.NewHasher(password.WithCost(4))

	base := []auth.ServiceOption{auth.WithClock(clock.Now), auth.WithNotifier(notifier)}
	svc := auth.NewService(storage, codec, hasher, append(base, opts...)...)
	t.Cleanup(svc.Wait)

	return &harness{svc: svc, store: store, storage: storage, codec: codec, clock: clock, notifier: notifier}
}

var meta = auth.ClientMeta{IP: "203.0.113.7", UserAgent: "test-agent"}

func (h *harness) signUp(t *testing.T, handle, email, pw string) *auth.AuthResult {
	t.Helper()
	res, err := h.svc.SignUp(context.Background(), auth.SignUpInput{
		Name:     handle,
		Handle:   handle,
		Email:    email,
		Password: pw,
	}, meta)
	require.NoError(t, err)
	return res
}

func (h *harness) credential(t *testing.T, refreshToken string) auth.RefreshCredential {
	t.Helper()
	claims, err := h.codec.DecodeRefresh(refreshToken)
	require.NoError(t, err)
	return auth.RefreshCredential{Token: refreshToken, Claims: claims}
}

func ptr[T any](v T) *T { return &v }
