package jwt

import "time"

// Config holds the shared signing secret and per-kind token lifetimes.
type Config struct {
	Secret               string        `env:"AUTH_JWT_SECRET,required"`
	AccessTokenTTL       time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL      time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"720h"`
	EmailVerificationTTL time.Duration `env:"AUTH_EMAIL_VERIFICATION_TTL" envDefault:"24h"`
	PasswordResetTTL     time.Duration `env:"AUTH_PASSWORD_RESET_TTL" envDefault:"1h"`
}

func (c Config) validate() error {
	if c.Secret == "" {
		return ErrMissingSigningKey
	}
	if len(c.Secret) < minSecretLength {
		return ErrInvalidSigningKey
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.EmailVerificationTTL <= 0 || c.PasswordResetTTL <= 0 {
		return ErrInvalidLifetime
	}
	return nil
}
