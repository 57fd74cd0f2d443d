// Package memory implements auth.Storage in process memory. Transactions
// are serialized and work on a private copy that replaces the committed
// state on success, so a failed transaction leaves no trace.
package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/session"
)

// ErrDuplicateID is returned when a user ID is inserted twice.
var ErrDuplicateID = errors.New("memory: duplicate id")

type state struct {
	users    map[uuid.UUID]auth.User
	conns    map[uuid.UUID]auth.OAuthConnection
	sessions *session.MemoryStore
}

func newState() *state {
	return &state{
		users:    make(map[uuid.UUID]auth.User),
		conns:    make(map[uuid.UUID]auth.OAuthConnection),
		sessions: session.NewMemoryStore(),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[uuid.UUID]auth.User, len(s.users)),
		conns:    make(map[uuid.UUID]auth.OAuthConnection, len(s.conns)),
		sessions: s.sessions.Clone(),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.conns {
		c.conns[k] = v
	}
	return c
}

type db struct {
	txMu      sync.Mutex
	committed atomic.Pointer[state]
}

// Store implements auth.Storage. The zero value is not usable; use New.
type Store struct {
	db *db
	tx *state
}

var _ auth.Storage = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	d := &db{}
	d.committed.Store(newState())
	return &Store{db: d}
}

// InTx runs fn against a private copy of the data and publishes it when fn
// succeeds and ctx is still live.
func (s *Store) InTx(ctx context.Context, fn func(tx auth.Storage) error) error {
	if s.tx != nil {
		return fn(s)
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.db.committed.Load().clone()
	if err := fn(&Store{db: s.db, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.committed.Store(work)
	return nil
}

// read returns the state visible to s. Committed states are never mutated.
func (s *Store) read() *state {
	if s.tx != nil {
		return s.tx
	}
	return s.db.committed.Load()
}

// write runs fn on a writable state, opening a transaction when s is not
// already inside one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.InTx(ctx, func(tx auth.Storage) error {
		return fn(tx.(*Store).tx)
	})
}

func (s *Store) Sessions() session.Store {
	if s.tx != nil {
		return s.tx.sessions
	}
	return rootSessions{s}
}

func (s *Store) UserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	u, ok := s.read().users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*auth.User, error) {
	if email == "" {
		return nil, auth.ErrUserNotFound
	}
	for _, u := range s.read().users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *Store) UserByHandle(_ context.Context, handle string) (*auth.User, error) {
	for _, u := range s.read().users {
		if u.Handle == handle {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

// LockUser is UserByID; transactions already run one at a time.
func (s *Store) LockUser(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.UserByID(ctx, id)
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return ErrDuplicateID
		}
		for _, existing := range st.users {
			if existing.Handle == u.Handle {
				return auth.ErrHandleAlreadyExists
			}
			if u.Email != "" && existing.Email == u.Email {
				return auth.ErrEmailAlreadyExists
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (s *Store) updateUser(ctx context.Context, id uuid.UUID, fn func(u *auth.User)) error {
	return s.write(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return auth.ErrUserNotFound
		}
		fn(&u)
		st.users[id] = u
		return nil
	})
}

func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	return s.updateUser(ctx, id, func(u *auth.User) {
		u.PasswordHash = hash
		u.UpdatedAt = at
	})
}

func (s *Store) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.updateUser(ctx, id, func(u *auth.User) {
		u.IsVerified = true
		u.UpdatedAt = at
	})
}

func (s *Store) SetAvatarURL(ctx context.Context, id uuid.UUID, url string, at time.Time) error {
	return s.updateUser(ctx, id, func(u *auth.User) {
		u.AvatarURL = url
		u.UpdatedAt = at
	})
}

func (s *Store) UserByConnection(ctx context.Context, provider auth.Provider, providerUserID string) (*auth.User, error) {
	st := s.read()
	for _, c := range st.conns {
		if c.Provider == provider && c.ProviderUserID == providerUserID {
			u, ok := st.users[c.UserID]
			if !ok {
				return nil, auth.ErrUserNotFound
			}
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *Store) CreateConnection(ctx context.Context, c *auth.OAuthConnection) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.users[c.UserID]; !ok {
			return auth.ErrUserNotFound
		}
		for _, existing := range st.conns {
			sameIdentity := existing.Provider == c.Provider && existing.ProviderUserID == c.ProviderUserID
			sameSlot := existing.UserID == c.UserID && existing.Provider == c.Provider
			if sameIdentity || sameSlot {
				return auth.ErrAccountAlreadyLinked
			}
		}
		st.conns[c.ID] = *c
		return nil
	})
}

func (s *Store) DeleteConnection(ctx context.Context, userID uuid.UUID, provider auth.Provider) error {
	return s.write(ctx, func(st *state) error {
		for id, c := range st.conns {
			if c.UserID == userID && c.Provider == provider {
				delete(st.conns, id)
				return nil
			}
		}
		return auth.ErrConnectionNotFound
	})
}

func (s *Store) ConnectionsByUser(_ context.Context, userID uuid.UUID) ([]auth.OAuthConnection, error) {
	var out []auth.OAuthConnection
	for _, c := range s.read().conns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b auth.OAuthConnection) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Provider, b.Provider))
	})
	return out, nil
}
