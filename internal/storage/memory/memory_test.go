package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/internal/storage/memory"
	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/session"
)

func newUser(handle, email string) *auth.User {
	now := time.Now()
	return &auth.User{
		ID:        uuid.New(),
		Name:      handle,
		Handle:    handle,
		Email:     email,
		Role:      auth.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_Users(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()

	ann := newUser("ann", "ann@example.com")
	require.NoError(t, s.CreateUser(ctx, ann))

	t.Run("lookups", func(t *testing.T) {
		u, err := s.UserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, ann.ID, u.ID)

		u, err = s.UserByHandle(ctx, "ann")
		require.NoError(t, err)
		assert.Equal(t, ann.ID, u.ID)

		_, err = s.UserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		_, err = s.UserByEmail(ctx, "")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("unique handle and email", func(t *testing.T) {
		assert.ErrorIs(t, s.CreateUser(ctx, newUser("ann", "other@example.com")), auth.ErrHandleAlreadyExists)
		assert.ErrorIs(t, s.CreateUser(ctx, newUser("bob", "ann@example.com")), auth.ErrEmailAlreadyExists)
		require.NoError(t, s.CreateUser(ctx, newUser("nomail1", "")))
		require.NoError(t, s.CreateUser(ctx, newUser("nomail2", "")))
	})

	t.Run("updates", func(t *testing.T) {
		at := time.Now().Add(time.Minute)
		require.NoError(t, s.UpdatePassword(ctx, ann.ID, "hash", at))
		require.NoError(t, s.MarkVerified(ctx, ann.ID, at))
		require.NoError(t, s.SetAvatarURL(ctx, ann.ID, "https://cdn/a.png", at))

		u, err := s.UserByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash", u.PasswordHash)
		assert.True(t, u.IsVerified)
		assert.Equal(t, "https://cdn/a.png", u.AvatarURL)
		assert.True(t, u.UpdatedAt.Equal(at))

		assert.ErrorIs(t, s.MarkVerified(ctx, uuid.New(), at), auth.ErrUserNotFound)
	})
}

func TestStore_Connections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()

	ann := newUser("ann", "ann@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, s.CreateUser(ctx, ann))
	require.NoError(t, s.CreateUser(ctx, bob))

	conn := func(userID uuid.UUID, p auth.Provider, pid string) *auth.OAuthConnection {
		return &auth.OAuthConnection{ID: uuid.New(), UserID: userID, Provider: p, ProviderUserID: pid, CreatedAt: time.Now()}
	}

	require.NoError(t, s.CreateConnection(ctx, conn(ann.ID, auth.ProviderGoogle, "g-1")))
	assert.ErrorIs(t, s.CreateConnection(ctx, conn(bob.ID, auth.ProviderGoogle, "g-1")), auth.ErrAccountAlreadyLinked)
	assert.ErrorIs(t, s.CreateConnection(ctx, conn(ann.ID, auth.ProviderGoogle, "g-2")), auth.ErrAccountAlreadyLinked)
	assert.ErrorIs(t, s.CreateConnection(ctx, conn(uuid.New(), auth.ProviderGitHub, "h-1")), auth.ErrUserNotFound)

	u, err := s.UserByConnection(ctx, auth.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, u.ID)

	conns, err := s.ConnectionsByUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, conns, 1)

	require.NoError(t, s.DeleteConnection(ctx, ann.ID, auth.ProviderGoogle))
	assert.ErrorIs(t, s.DeleteConnection(ctx, ann.ID, auth.ProviderGoogle), auth.ErrConnectionNotFound)
	_, err = s.UserByConnection(ctx, auth.ProviderGoogle, "g-1")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestStore_InTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		boom := errors.New("boom")

		err := s.InTx(ctx, func(tx auth.Storage) error {
			require.NoError(t, tx.CreateUser(ctx, newUser("ann", "ann@example.com")))
			require.NoError(t, tx.Sessions().Create(ctx, session.Record{ID: "j1", Token: "t1", ExpiresAt: time.Now().Add(time.Hour)}))

			_, err := tx.UserByHandle(ctx, "ann")
			require.NoError(t, err, "writes are visible inside the transaction")
			_, err = s.UserByHandle(ctx, "ann")
			require.ErrorIs(t, err, auth.ErrUserNotFound, "writes are invisible outside until commit")
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.UserByHandle(ctx, "ann")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		_, err = s.Sessions().FindByJTIAndToken(ctx, "j1", "t1")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("commit and nesting", func(t *testing.T) {
		t.Parallel()
		s := memory.New()

		err := s.InTx(ctx, func(tx auth.Storage) error {
			return tx.InTx(ctx, func(inner auth.Storage) error {
				return inner.CreateUser(ctx, newUser("ann", "ann@example.com"))
			})
		})
		require.NoError(t, err)

		_, err = s.UserByHandle(ctx, "ann")
		assert.NoError(t, err)
	})

	t.Run("canceled context rolls back", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		cctx, cancel := context.WithCancel(ctx)

		err := s.InTx(cctx, func(tx auth.Storage) error {
			cancel()
			return tx.CreateUser(ctx, newUser("ann", "ann@example.com"))
		})
		require.ErrorIs(t, err, context.Canceled)

		_, err = s.UserByHandle(ctx, "ann")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestStore_RootSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	uid := uuid.New()
	now := time.Now()

	rec := session.Record{ID: "j1", UserID: uid, Token: "t1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Sessions().Create(ctx, rec))
	assert.ErrorIs(t, s.Sessions().Create(ctx, rec), session.ErrConflict)

	active, err := s.Sessions().ListActive(ctx, uid, now)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, s.Sessions().Revoke(ctx, "j1", now))
	assert.ErrorIs(t, s.Sessions().Revoke(ctx, "j1", now), session.ErrAlreadyRevoked)

	n, err := s.Sessions().DeleteExpired(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
