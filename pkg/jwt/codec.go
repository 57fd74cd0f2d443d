package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

// Claims is implemented by the four token claim sets.
type Claims interface {
	gojwt.Claims
	check() error
}

// Codec mints and decodes HS256 tokens of every kind with one shared secret.
type Codec struct {
	secret []byte
	cfg    Config
	now    func() time.Time
	parser *gojwt.Parser
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp when minting.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Codec. The secret must be at least 32 bytes and every
// lifetime positive.
func New(cfg Config, opts ...Option) (*Codec, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Codec{
		secret: []byte(cfg.Secret),
		cfg:    cfg,
		now:    time.Now,
		parser: gojwt.NewParser(
			gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
			gojwt.WithStrictDecoding(),
			gojwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the lifetimes the codec was built with.
func (c *Codec) Config() Config {
	cfg := c.cfg
	cfg.Secret = ""
	return cfg
}

// RefreshToken is a freshly minted refresh token plus the fields the
// session store needs to persist it.
type RefreshToken struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *Codec) base(kind Kind, userID uuid.UUID, ttl time.Duration) BaseClaims {
	now := c.now()
	return BaseClaims{
		Kind:      kind,
		Subject:   userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func (c *Codec) sign(claims gojwt.Claims) (string, error) {
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}
	return token, nil
}

// MintAccess issues an access token for userID.
func (c *Codec) MintAccess(userID uuid.UUID) (string, error) {
	return c.sign(AccessClaims{BaseClaims: c.base(KindAccess, userID, c.cfg.AccessTokenTTL)})
}

// MintRefresh issues a refresh token with a fresh random jti.
func (c *Codec) MintRefresh(userID uuid.UUID) (RefreshToken, error) {
	claims := RefreshClaims{
		BaseClaims: c.base(KindRefresh, userID, c.cfg.RefreshTokenTTL),
		ID:         uuid.NewString(),
	}
	token, err := c.sign(claims)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Token:     token,
		JTI:       claims.ID,
		IssuedAt:  claims.IssuedTime(),
		ExpiresAt: claims.ExpiresTime(),
	}, nil
}

// MintEmailVerification issues a token proving control of email.
func (c *Codec) MintEmailVerification(userID uuid.UUID, email string) (string, error) {
	return c.sign(EmailVerificationClaims{
		BaseClaims: c.base(KindEmailVerification, userID, c.cfg.EmailVerificationTTL),
		Email:      email,
	})
}

// MintPasswordReset issues a password reset token. stamp is stored verbatim.
func (c *Codec) MintPasswordReset(userID uuid.UUID, email, stamp string) (string, error) {
	return c.sign(PasswordResetClaims{
		BaseClaims: c.base(KindPasswordReset, userID, c.cfg.PasswordResetTTL),
		Email:      email,
		Stamp:      stamp,
	})
}

func (c *Codec) key(*gojwt.Token) (any, error) {
	return c.secret, nil
}

// Decode verifies token and returns its claims as T.
//
// Every failure (bad encoding, bad signature, wrong algorithm, wrong kind,
// unknown or missing claims) is reported as ErrInvalidToken. Expiry is not
// checked; use Expired on the result.
func Decode[T any, PT interface {
	*T
	Claims
}](c *Codec, token string) (T, error) {
	var zero T
	claims := PT(new(T))
	if _, err := c.parser.ParseWithClaims(token, claims, c.key); err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	if err := claims.check(); err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	return *claims, nil
}

// DecodeAccess is Decode for access tokens.
func (c *Codec) DecodeAccess(token string) (AccessClaims, error) {
	return Decode[AccessClaims](c, token)
}

// DecodeRefresh is Decode for refresh tokens.
func (c *Codec) DecodeRefresh(token string) (RefreshClaims, error) {
	return Decode[RefreshClaims](c, token)
}

// DecodeEmailVerification is Decode for email verification tokens.
func (c *Codec) DecodeEmailVerification(token string) (EmailVerificationClaims, error) {
	return Decode[EmailVerificationClaims](c, token)
}

// DecodePasswordReset is Decode for password reset tokens.
func (c *Codec) DecodePasswordReset(token string) (PasswordResetClaims, error) {
	return Decode[PasswordResetClaims](c, token)
}
