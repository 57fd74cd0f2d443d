package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tags every token so one kind can never be accepted as another.
type Kind string

const (
	KindAccess            Kind = "access"
	KindRefresh           Kind = "refresh"
	KindEmailVerification Kind = "email_verification"
	KindPasswordReset     Kind = "password_reset"
)

// BaseClaims are the claims shared by every token kind.
// Times are Unix seconds.
type BaseClaims struct {
	Kind      Kind      `json:"typ"`
	Subject   uuid.UUID `json:"sub"`
	IssuedAt  int64     `json:"iat"`
	ExpiresAt int64     `json:"exp"`
}

// Expired reports whether the token's expiry is not after now.
// The codec never checks expiry itself; callers do it with their own clock.
func (c BaseClaims) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// ExpiresTime returns exp as a time.Time.
func (c BaseClaims) ExpiresTime() time.Time { return time.Unix(c.ExpiresAt, 0) }

// IssuedTime returns iat as a time.Time.
func (c BaseClaims) IssuedTime() time.Time { return time.Unix(c.IssuedAt, 0) }

func (c BaseClaims) check(want Kind) error {
	switch {
	case c.Kind != want:
		return fmt.Errorf("%w: kind %q, want %q", ErrInvalidClaims, c.Kind, want)
	case c.Subject == uuid.Nil:
		return fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	case c.IssuedAt <= 0:
		return fmt.Errorf("%w: missing iat", ErrInvalidClaims)
	case c.ExpiresAt <= c.IssuedAt:
		return fmt.Errorf("%w: exp not after iat", ErrInvalidClaims)
	}
	return nil
}

// gojwt.Claims. Only consulted when claims validation is enabled, which the
// codec never does, but the interface still has to be satisfied.

func (c BaseClaims) GetExpirationTime() (*gojwt.NumericDate, error) {
	return gojwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c BaseClaims) GetIssuedAt() (*gojwt.NumericDate, error) {
	return gojwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c BaseClaims) GetNotBefore() (*gojwt.NumericDate, error) { return nil, nil }
func (c BaseClaims) GetIssuer() (string, error)                { return "", nil }
func (c BaseClaims) GetSubject() (string, error)               { return c.Subject.String(), nil }
func (c BaseClaims) GetAudience() (gojwt.ClaimStrings, error)  { return nil, nil }

// AccessClaims authorize API calls for a short period.
type AccessClaims struct {
	BaseClaims
}

// RefreshClaims identify one persisted refresh session by ID (jti).
type RefreshClaims struct {
	BaseClaims
	ID string `json:"jti"`
}

// EmailVerificationClaims bind a verification link to a user and address.
type EmailVerificationClaims struct {
	BaseClaims
	Email string `json:"email"`
}

// PasswordResetClaims bind a reset link to a user and address. Stamp is a
// fingerprint of the password hash at mint time; empty for accounts that had
// no password.
type PasswordResetClaims struct {
	BaseClaims
	Email string `json:"email"`
	Stamp string `json:"stp,omitempty"`
}

func (c *AccessClaims) check() error { return c.BaseClaims.check(KindAccess) }

func (c *RefreshClaims) check() error {
	if err := c.BaseClaims.check(KindRefresh); err != nil {
		return err
	}
	if c.ID == "" {
		return fmt.Errorf("%w: missing jti", ErrInvalidClaims)
	}
	return nil
}

func (c *EmailVerificationClaims) check() error {
	if err := c.BaseClaims.check(KindEmailVerification); err != nil {
		return err
	}
	if c.Email == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidClaims)
	}
	return nil
}

func (c *PasswordResetClaims) check() error {
	if err := c.BaseClaims.check(KindPasswordReset); err != nil {
		return err
	}
	if c.Email == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidClaims)
	}
	return nil
}

func (c *AccessClaims) UnmarshalJSON(b []byte) error {
	type plain AccessClaims
	return decodeStrict(b, (*plain)(c))
}

func (c *RefreshClaims) UnmarshalJSON(b []byte) error {
	type plain RefreshClaims
	return decodeStrict(b, (*plain)(c))
}

func (c *EmailVerificationClaims) UnmarshalJSON(b []byte) error {
	type plain EmailVerificationClaims
	return decodeStrict(b, (*plain)(c))
}

func (c *PasswordResetClaims) UnmarshalJSON(b []byte) error {
	type plain PasswordResetClaims
	return decodeStrict(b, (*plain)(c))
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrInvalidClaims)
	}
	return nil
}
