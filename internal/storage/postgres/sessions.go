package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mofumofu/authcore/pkg/pg"
	"github.com/mofumofu/authcore/pkg/session"
)

// Sessions implements session.Store on the refresh_tokens table.
type Sessions struct {
	q querier
}

var _ session.Store = (*Sessions)(nil)

const sessionColumns = `id, user_id, token, issued_at, expires_at, revoked_at, ip_address, user_agent`

func (s *Sessions) Create(ctx context.Context, rec session.Record) error {
	if rec.ID == "" || rec.Token == "" {
		return session.ErrInvalidRecord
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO refresh_tokens (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.UserID, rec.Token, rec.IssuedAt, rec.ExpiresAt, rec.RevokedAt, rec.IPAddress, rec.UserAgent,
	)
	return mapError("create session", err)
}

// FindByJTIAndToken locks the row for the rest of the transaction.
func (s *Sessions) FindByJTIAndToken(ctx context.Context, jti, token string) (*session.Record, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+sessionColumns+` FROM refresh_tokens
		WHERE id = $1 AND token = $2
		FOR UPDATE`, jti, token)
	if err != nil {
		return nil, mapError("find session", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if pg.IsNotFoundError(err) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, mapError("find session", err)
	}
	return &rec, nil
}

func (s *Sessions) Revoke(ctx context.Context, jti string, at time.Time) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, jti, at)
	if err != nil {
		return mapError("revoke session", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE id = $1)`, jti).Scan(&exists); err != nil {
		return mapError("revoke session", err)
	}
	if exists {
		return session.ErrAlreadyRevoked
	}
	return session.ErrNotFound
}

func (s *Sessions) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`, userID, at)
	if err != nil {
		return 0, mapError("revoke user sessions", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Sessions) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]session.Record, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+sessionColumns+` FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY issued_at DESC, id`, userID, now)
	if err != nil {
		return nil, mapError("list sessions", err)
	}
	recs, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, mapError("list sessions", err)
	}
	return recs, nil
}

func (s *Sessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $1`, before)
	if err != nil {
		return 0, mapError("delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.CollectableRow) (session.Record, error) {
	var rec session.Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Token, &rec.IssuedAt, &rec.ExpiresAt,
		&rec.RevokedAt, &rec.IPAddress, &rec.UserAgent)
	return rec, err
}
