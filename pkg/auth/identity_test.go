package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/auth"
)

func googleIdentity(pid, email string, verified bool) auth.Identity {
	return auth.Identity{
		Provider:       auth.ProviderGoogle,
		ProviderUserID: pid,
		Email:          email,
		EmailVerified:  verified,
		Name:           "Ann Example",
	}
}

func TestResolveOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		id := googleIdentity("g-1", "ann@x.com", true)

		first, err := h.svc.ResolveOrCreate(ctx, id, ptr("ann"))
		require.NoError(t, err)
		assert.True(t, first.IsNewUser)
		assert.True(t, first.User.IsVerified)
		assert.Equal(t, "Ann Example", first.User.Name)
		assert.False(t, first.User.HasPassword())

		second, err := h.svc.ResolveOrCreate(ctx, id, nil)
		require.NoError(t, err)
		assert.False(t, second.IsNewUser)
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("concurrent first sign-in creates one user", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		id := googleIdentity("g-race", "race@x.com", true)

		const n = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			ids     = make(map[uuid.UUID]int)
			created int
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := h.svc.ResolveOrCreate(ctx, id, ptr("racer"))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				ids[res.User.ID]++
				if res.IsNewUser {
					created++
				}
			}()
		}
		wg.Wait()

		require.Len(t, ids, 1)
		assert.Equal(t, 1, created)
		for uid := range ids {
			conns, err := h.svc.Connections(ctx, uid)
			require.NoError(t, err)
			assert.Len(t, conns, 1)
		}
	})

	t.Run("new identity needs a handle", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-2", "new@x.com", true), nil)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("handle collision", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.signUp(t, "ann", "ann@x.com", "p@ss")

		before := h.storage.txs.Load()
		_, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-3", "someone@x.com", true), ptr("Ann"))
		assert.ErrorIs(t, err, auth.ErrHandleAlreadyExists)
		assert.Equal(t, int64(1), h.storage.txs.Load()-before, "a taken handle is not retried")
	})

	t.Run("invalid handle", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-4", "x@x.com", true), ptr("a!"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrHandleAlreadyExists)
	})

	t.Run("merges by verified email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		ann := h.signUp(t, "ann", "ann@x.com", "p@ss")

		res, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-5", "Ann@X.com", true), nil)
		require.NoError(t, err)
		assert.False(t, res.IsNewUser)
		assert.Equal(t, ann.User.ID, res.User.ID)

		conns, err := h.svc.Connections(ctx, ann.User.ID)
		require.NoError(t, err)
		require.Len(t, conns, 1)
		assert.Equal(t, auth.ProviderGoogle, conns[0].Provider)
	})

	t.Run("refuses to merge an unverified email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.signUp(t, "ann", "ann@x.com", "p@ss")

		_, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-6", "ann@x.com", false), ptr("ann2"))
		assert.ErrorIs(t, err, auth.ErrUnverifiedEmail)
	})

	t.Run("merge of unverified email when allowed", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, auth.WithRequireVerifiedEmailForMerge(false))
		ann := h.signUp(t, "ann", "ann@x.com", "p@ss")

		res, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-7", "ann@x.com", false), nil)
		require.NoError(t, err)
		assert.Equal(t, ann.User.ID, res.User.ID)
	})

	t.Run("retries after losing an insert race", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.storage.createUserErr = auth.ErrEmailAlreadyExists
		h.storage.createUserFails.Store(1)

		res, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-8", "late@x.com", true), ptr("late"))
		require.NoError(t, err)
		assert.True(t, res.IsNewUser)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.storage.createUserErr = auth.ErrEmailAlreadyExists
		h.storage.createUserFails.Store(10)

		before := h.storage.txs.Load()
		_, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-9", "late@x.com", true), ptr("late"))
		require.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
		assert.Equal(t, int64(7), h.storage.createUserFails.Load(), "three attempts were made")
		assert.Equal(t, int64(3), h.storage.txs.Load()-before)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		id := googleIdentity("x", "x@x.com", true)
		id.Provider = "gitlab"
		_, err := h.svc.ResolveOrCreate(ctx, id, ptr("xx_x"))
		assert.ErrorIs(t, err, auth.ErrUnknownProvider)
	})
}

func TestResolveOrCreate_AvatarImport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	importer := &MockAvatarImporter{}
	importer.On("Import", mock.Anything, mock.AnythingOfType("uuid.UUID"), "https://provider.test/a.png").
		Return("https://cdn.test/avatars/a.png", nil).Once()

	h := newHarness(t, auth.WithAvatarImporter(importer))
	id := googleIdentity("g-avatar", "pic@x.com", true)
	id.AvatarURL = "https://provider.test/a.png"

	res, err := h.svc.ResolveOrCreate(ctx, id, ptr("pic"))
	require.NoError(t, err)
	h.svc.Wait()

	user, err := h.svc.UserByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatars/a.png", user.AvatarURL)

	// Returning users do not trigger another import.
	_, err = h.svc.ResolveOrCreate(ctx, id, nil)
	require.NoError(t, err)
	h.svc.Wait()
	importer.AssertExpectations(t)
}

func TestLinkAndUnlink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("link", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		ann := h.signUp(t, "ann", "ann@x.com", "p@ss")
		bob := h.signUp(t, "bob", "bob@x.com", "p@ss")

		require.NoError(t, h.svc.Link(ctx, ann.User.ID, auth.ProviderGitHub, "gh-1"))
		assert.ErrorIs(t, h.svc.Link(ctx, bob.User.ID, auth.ProviderGitHub, "gh-1"), auth.ErrAccountAlreadyLinked)
		assert.ErrorIs(t, h.svc.Link(ctx, ann.User.ID, auth.ProviderGitHub, "gh-2"), auth.ErrAccountAlreadyLinked)
		assert.ErrorIs(t, h.svc.Link(ctx, uuid.New(), auth.ProviderGoogle, "g-1"), auth.ErrUserNotFound)
		assert.ErrorIs(t, h.svc.Link(ctx, ann.User.ID, "gitlab", "x"), auth.ErrUnknownProvider)
	})

	t.Run("sole factor cannot be unlinked", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		res, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-1", "ann@x.com", true), ptr("ann"))
		require.NoError(t, err)

		assert.ErrorIs(t, h.svc.Unlink(ctx, res.User.ID, auth.ProviderGoogle), auth.ErrCannotUnlinkLastConnection)
		assert.ErrorIs(t, h.svc.Unlink(ctx, res.User.ID, auth.ProviderGitHub), auth.ErrConnectionNotFound)

		require.NoError(t, h.svc.Link(ctx, res.User.ID, auth.ProviderGitHub, "gh-1"))
		require.NoError(t, h.svc.Unlink(ctx, res.User.ID, auth.ProviderGoogle))
		assert.ErrorIs(t, h.svc.Unlink(ctx, res.User.ID, auth.ProviderGitHub), auth.ErrCannotUnlinkLastConnection)
	})

	t.Run("password plus one connection", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		ann := h.signUp(t, "ann", "ann@x.com", "p@ss")
		require.NoError(t, h.svc.Link(ctx, ann.User.ID, auth.ProviderGoogle, "g-1"))

		require.NoError(t, h.svc.Unlink(ctx, ann.User.ID, auth.ProviderGoogle))
		conns, err := h.svc.Connections(ctx, ann.User.ID)
		require.NoError(t, err)
		assert.Empty(t, conns)
	})

	t.Run("concurrent unlinks keep one factor", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		res, err := h.svc.ResolveOrCreate(ctx, googleIdentity("g-1", "ann@x.com", true), ptr("ann"))
		require.NoError(t, err)
		require.NoError(t, h.svc.Link(ctx, res.User.ID, auth.ProviderGitHub, "gh-1"))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, p := range []auth.Provider{auth.ProviderGoogle, auth.ProviderGitHub} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = h.svc.Unlink(ctx, res.User.ID, p)
			}()
		}
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, auth.ErrCannotUnlinkLastConnection)
				failed++
			}
		}
		assert.Equal(t, 1, failed)

		conns, err := h.svc.Connections(ctx, res.User.ID)
		require.NoError(t, err)
		assert.Len(t, conns, 1)
	})
}
