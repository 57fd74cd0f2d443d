package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r.rank() > 0 }

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.rank() >= min.rank()
}

// Provider identifies an external OAuth identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// ParseProvider converts user input into a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", ErrUnknownProvider
	}
	return p, nil
}

// User is an account. PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID           uuid.UUID
	Name         string
	Handle       string
	Email        string
	PasswordHash string
	IsVerified   bool
	Role         Role
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can sign in with a local password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// OAuthConnection links a user to one provider account.
type OAuthConnection struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Provider       Provider
	ProviderUserID string
	CreatedAt      time.Time
}

// TokenPair is the result of a sign-in or a refresh rotation.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthResult is returned by every flow that signs a user in.
type AuthResult struct {
	User      User
	Tokens    TokenPair
	IsNewUser bool
}

// ClientMeta describes the device making the request. It is stored with
// each refresh session.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Identity is a verified external identity as reported by a provider.
type Identity struct {
	Provider       Provider
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// Resolution is the outcome of ResolveOrCreate.
type Resolution struct {
	User      User
	IsNewUser bool
}

// SignUpInput is the payload of a local sign-up.
type SignUpInput struct {
	Name     string
	Handle   string
	Email    string
	Password string
}

// SignInInput is the payload of a local sign-in. Login is an email address
// or a handle.
type SignInInput struct {
	Login    string
	Password string
}
