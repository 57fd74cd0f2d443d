package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrMissingToken      = errors.New("jwt: missing token")
	ErrInvalidClaims     = errors.New("jwt: invalid claims")
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrInvalidSigningKey = errors.New("jwt: signing key must be at least 32 bytes")
	ErrInvalidLifetime   = errors.New("jwt: token lifetimes must be positive")
	ErrSigningFailed     = errors.New("jwt: failed to sign token")
)
