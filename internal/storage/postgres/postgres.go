// Package postgres implements auth.Storage on PostgreSQL through pgx.
//
// Unique and foreign key violations are mapped to the auth sentinels by
// constraint name, so the schema in migrations/ and the mapping in
// errors.go must change together.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/pg"
	"github.com/mofumofu/authcore/pkg/session"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations, "migrations", cfg, log)
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements auth.Storage.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

var _ auth.Storage = (*Store)(nil)

// New creates a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// InTx runs fn in a transaction. A cancelled ctx aborts the transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx auth.Storage) error) error {
	if s.inTx {
		return fn(s)
	}
	return pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, inTx: true})
	})
}

func (s *Store) Sessions() session.Store {
	return &Sessions{q: s.q}
}

const userColumns = `id, name, handle, COALESCE(email, ''), COALESCE(password_hash, ''),
	is_verified, role, COALESCE(avatar_url, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Handle, &u.Email, &u.PasswordHash,
		&u.IsVerified, &role, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan user: %w", err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if email == "" {
		return nil, auth.ErrUserNotFound
	}
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Store) UserByHandle(ctx context.Context, handle string) (*auth.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE handle = $1`, handle))
}

func (s *Store) LockUser(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	role := u.Role
	if role == "" {
		role = auth.RoleMember
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO users (id, name, handle, email, password_hash, is_verified, role, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9, $10)`,
		u.ID, u.Name, u.Handle, u.Email, u.PasswordHash, u.IsVerified, string(role), u.AvatarURL, u.CreatedAt, u.UpdatedAt,
	)
	return mapError("create user", err)
}

// updateUser runs an UPDATE on one user and reports ErrUserNotFound when no
// row matched.
func (s *Store) updateUser(ctx context.Context, op, sql string, args ...any) error {
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	return s.updateUser(ctx, "update password",
		`UPDATE users SET password_hash = NULLIF($2, ''), updated_at = $3 WHERE id = $1`, id, hash, at)
}

func (s *Store) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.updateUser(ctx, "mark verified",
		`UPDATE users SET is_verified = true, updated_at = $2 WHERE id = $1`, id, at)
}

func (s *Store) SetAvatarURL(ctx context.Context, id uuid.UUID, url string, at time.Time) error {
	return s.updateUser(ctx, "set avatar",
		`UPDATE users SET avatar_url = NULLIF($2, ''), updated_at = $3 WHERE id = $1`, id, url, at)
}

func (s *Store) UserByConnection(ctx context.Context, provider auth.Provider, providerUserID string) (*auth.User, error) {
	return scanUser(s.q.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = (SELECT user_id FROM oauth_connections WHERE provider = $1 AND provider_user_id = $2)`,
		string(provider), providerUserID,
	))
}

func (s *Store) CreateConnection(ctx context.Context, c *auth.OAuthConnection) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO oauth_connections (id, user_id, provider, provider_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, string(c.Provider), c.ProviderUserID, c.CreatedAt,
	)
	return mapError("create connection", err)
}

func (s *Store) DeleteConnection(ctx context.Context, userID uuid.UUID, provider auth.Provider) error {
	tag, err := s.q.Exec(ctx,
		`DELETE FROM oauth_connections WHERE user_id = $1 AND provider = $2`, userID, string(provider))
	if err != nil {
		return mapError("delete connection", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrConnectionNotFound
	}
	return nil
}

func (s *Store) ConnectionsByUser(ctx context.Context, userID uuid.UUID) ([]auth.OAuthConnection, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM oauth_connections WHERE user_id = $1
		ORDER BY created_at, provider`, userID)
	if err != nil {
		return nil, mapError("list connections", err)
	}
	conns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (auth.OAuthConnection, error) {
		var (
			c        auth.OAuthConnection
			provider string
		)
		err := row.Scan(&c.ID, &c.UserID, &provider, &c.ProviderUserID, &c.CreatedAt)
		c.Provider = auth.Provider(provider)
		return c, err
	})
	if err != nil {
		return nil, mapError("list connections", err)
	}
	return conns, nil
}
