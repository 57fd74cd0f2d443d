package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/session"
)

// rootSessions is the session store outside a transaction. Reads use the
// committed state; writes run in their own transaction so they cannot be
// lost to a concurrent commit.
type rootSessions struct {
	s *Store
}

var _ session.Store = rootSessions{}

func (r rootSessions) Create(ctx context.Context, rec session.Record) error {
	return r.s.write(ctx, func(st *state) error {
		return st.sessions.Create(ctx, rec)
	})
}

func (r rootSessions) FindByJTIAndToken(ctx context.Context, jti, token string) (*session.Record, error) {
	return r.s.read().sessions.FindByJTIAndToken(ctx, jti, token)
}

func (r rootSessions) Revoke(ctx context.Context, jti string, at time.Time) error {
	return r.s.write(ctx, func(st *state) error {
		return st.sessions.Revoke(ctx, jti, at)
	})
}

func (r rootSessions) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(st *state) error {
		var err error
		n, err = st.sessions.RevokeAllForUser(ctx, userID, at)
		return err
	})
	return n, err
}

func (r rootSessions) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]session.Record, error) {
	return r.s.read().sessions.ListActive(ctx, userID, now)
}

func (r rootSessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(st *state) error {
		var err error
		n, err = st.sessions.DeleteExpired(ctx, before)
		return err
	})
	return n, err
}
