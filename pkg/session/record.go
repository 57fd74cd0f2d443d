package session

import (
	"time"

	"github.com/google/uuid"
)

// Record is one persisted refresh session. ID is the refresh token's jti.
type Record struct {
	ID        string
	UserID    uuid.UUID
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	IPAddress string
	UserAgent string
}

// IsRevoked reports whether the session was revoked.
func (r Record) IsRevoked() bool { return r.RevokedAt != nil }

// IsExpired reports whether the session is expired at now.
func (r Record) IsExpired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

// IsActive reports whether the record can still be used for rotation.
func (r Record) IsActive(now time.Time) bool { return !r.IsRevoked() && !r.IsExpired(now) }
