package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/session"
)

// Storage is the persistence port of the auth core.
//
// Lookups return ErrUserNotFound or ErrConnectionNotFound when nothing
// matches. Inserts return ErrHandleAlreadyExists, ErrEmailAlreadyExists or
// ErrAccountAlreadyLinked when a unique constraint rejects the row. Any
// other error is treated as a storage failure.
type Storage interface {
	// InTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise. Calling InTx on the Storage
	// passed to fn runs fn in the same transaction.
	InTx(ctx context.Context, fn func(tx Storage) error) error

	// Sessions returns the refresh session store bound to the same
	// transaction as the receiver.
	Sessions() session.Store

	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByHandle(ctx context.Context, handle string) (*User, error)
	// LockUser loads the user and holds a row lock until the transaction ends.
	LockUser(ctx context.Context, id uuid.UUID) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	SetAvatarURL(ctx context.Context, id uuid.UUID, url string, at time.Time) error

	UserByConnection(ctx context.Context, provider Provider, providerUserID string) (*User, error)
	CreateConnection(ctx context.Context, c *OAuthConnection) error
	DeleteConnection(ctx context.Context, userID uuid.UUID, provider Provider) error
	ConnectionsByUser(ctx context.Context, userID uuid.UUID) ([]OAuthConnection, error)
}

// Notifier delivers account emails. email.AuthMailer implements it.
type Notifier interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// AvatarImporter copies a provider avatar into owned storage and returns the
// URL to store on the user.
type AvatarImporter interface {
	Import(ctx context.Context, userID uuid.UUID, sourceURL string) (string, error)
}

// PasswordHasher hashes and verifies local passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

type noopNotifier struct{}

func (noopNotifier) SendVerification(context.Context, string, string, string) error  { return nil }
func (noopNotifier) SendPasswordReset(context.Context, string, string, string) error { return nil }
