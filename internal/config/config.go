// Package config aggregates the settings of every authd component.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/clientip"
	pkgconfig "github.com/mofumofu/authcore/pkg/config"
	"github.com/mofumofu/authcore/pkg/cookie"
	"github.com/mofumofu/authcore/pkg/email"
	"github.com/mofumofu/authcore/pkg/environment"
	"github.com/mofumofu/authcore/pkg/file"
	"github.com/mofumofu/authcore/pkg/httpserver"
	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/pg"
	"github.com/mofumofu/authcore/pkg/ratelimiter"
	"github.com/mofumofu/authcore/pkg/redis"
)

// ErrInvalidConfig is returned when values parse but do not make sense together.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// App holds process level settings.
type App struct {
	Name     string                  `env:"APP_NAME" envDefault:"authd"`
	Env      environment.Environment `env:"APP_ENV" envDefault:"development"`
	LogLevel string                  `env:"LOG_LEVEL" envDefault:"info"`

	// SessionCleanupInterval runs the expired session janitor. Zero disables it.
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
	// RateLimitEnabled guards the credential endpoints.
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

// Media configures where imported avatars are stored when S3 is not set up.
type Media struct {
	Dir           string `env:"MEDIA_DIR" envDefault:"./tmp/media"`
	BaseURL       string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	AvatarMaxSize int64  `env:"AVATAR_MAX_SIZE" envDefault:"4194304"`
}

// Config is the complete authd configuration.
type Config struct {
	App       App
	Auth      auth.Config
	JWT       jwt.Config
	Google    auth.GoogleOAuthConfig
	GitHub    auth.GitHubOAuthConfig
	Postgres  pg.Config
	Redis     redis.Config
	HTTP      httpserver.Config
	Cookie    cookie.Config
	ClientIP  clientip.Config
	RateLimit ratelimiter.Config
	Email     email.Config
	S3        file.S3Config
	Media     Media
}

// Load reads the configuration from the environment and the optional dotenv
// files. Real environment variables win over file values.
func Load(opts ...pkgconfig.Option) (Config, error) {
	cfg, err := pkgconfig.Load[Config](opts...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, fmt.Errorf("%w: AUTH_JWT_SECRET must be at least 32 bytes", ErrInvalidConfig))
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= c.JWT.AccessTokenTTL {
		errs = append(errs, fmt.Errorf("%w: refresh TTL must exceed a positive access TTL", ErrInvalidConfig))
	}
	if c.App.SessionCleanupInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: SESSION_CLEANUP_INTERVAL must not be negative", ErrInvalidConfig))
	}
	if c.Auth.HashWorkers < 0 {
		errs = append(errs, fmt.Errorf("%w: AUTH_HASH_WORKERS must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
