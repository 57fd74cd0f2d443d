package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists refresh sessions. Implementations must make Revoke
// conditional so a record is revoked at most once.
type Store interface {
	// Create stores a new record. Returns ErrConflict if the ID exists.
	Create(ctx context.Context, rec Record) error

	// FindByJTIAndToken returns the record whose ID and token both match,
	// revoked or not. Returns ErrNotFound otherwise.
	FindByJTIAndToken(ctx context.Context, jti, token string) (*Record, error)

	// Revoke marks the record revoked at the given time.
	// Returns ErrNotFound for unknown IDs and ErrAlreadyRevoked if it was revoked before.
	Revoke(ctx context.Context, jti string, at time.Time) error

	// RevokeAllForUser revokes every unrevoked record of the user and
	// returns how many were changed.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)

	// ListActive returns the user's unrevoked, unexpired records, newest first.
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]Record, error)

	// DeleteExpired removes records that expired or were revoked before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
