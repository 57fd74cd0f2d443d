// Command authd runs the authentication service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mofumofu/authcore/internal/avatar"
	"github.com/mofumofu/authcore/internal/config"
	"github.com/mofumofu/authcore/internal/httpapi"
	"github.com/mofumofu/authcore/internal/storage/postgres"
	"github.com/mofumofu/authcore/pkg/async"
	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/clientip"
	pkgconfig "github.com/mofumofu/authcore/pkg/config"
	"github.com/mofumofu/authcore/pkg/cookie"
	"github.com/mofumofu/authcore/pkg/email"
	"github.com/mofumofu/authcore/pkg/environment"
	"github.com/mofumofu/authcore/pkg/file"
	"github.com/mofumofu/authcore/pkg/httpserver"
	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/logger"
	"github.com/mofumofu/authcore/pkg/password"
	"github.com/mofumofu/authcore/pkg/pg"
	"github.com/mofumofu/authcore/pkg/ratelimiter"
	"github.com/mofumofu/authcore/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "authd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(pkgconfig.WithOptionalEnvFiles(".env"))
	if err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.App.Env, cfg.App.Name),
		logger.WithContextExtractors(
			environment.LoggerExtractor(),
			logger.ContextValue("request_id", middleware.RequestIDKey),
		),
	}
	if cfg.App.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
		logOpts = append(logOpts, logger.WithLevel(level))
	}
	log := logger.New(logOpts...)

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, cfg.Postgres, log.With(logger.Component("migrate"))); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}

	codec, err := jwt.New(cfg.JWT)
	if err != nil {
		return err
	}

	oauthBuilder := auth.NewOAuthClientBuilder()
	if cfg.Google.Enabled() {
		oauthBuilder.Google(cfg.Google)
	}
	if cfg.GitHub.Enabled() {
		oauthBuilder.GitHub(cfg.GitHub)
	}
	oauth, err := oauthBuilder.Build()
	if err != nil {
		return fmt.Errorf("oauth: %w", err)
	}

	sender, err := email.NewSenderFromConfig(cfg.Email)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	media, err := newMediaStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("media storage: %w", err)
	}
	avatars := avatar.New(media,
		avatar.WithMaxSize(cfg.Media.AvatarMaxSize),
		avatar.WithLogger(log.With(logger.Component("avatar"))),
	)

	hashPool := async.NewPool(cfg.Auth.HashWorkers)
	defer hashPool.Close()

	svc := auth.NewService(postgres.New(pool), codec, password.NewHasher(password.WithPool(hashPool)),
		auth.WithConfig(cfg.Auth),
		auth.WithLogger(log.With(logger.Component("auth"))),
		auth.WithNotifier(email.NewAuthMailer(sender, cfg.Email)),
		auth.WithAvatarImporter(avatars),
		auth.WithOAuthClient(oauth),
	)
	defer svc.Wait()

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(log.With(logger.Component("http"))),
		httpapi.WithEnvironment(cfg.App.Env),
		httpapi.WithClientIP(clientip.NewFromConfig(cfg.ClientIP)),
		httpapi.WithRefreshTTL(cfg.JWT.RefreshTokenTTL),
	}
	if !cfg.S3.Enabled() {
		apiOpts = append(apiOpts, httpapi.WithMedia(cfg.Media.BaseURL, cfg.Media.Dir))
	}

	if cfg.App.RateLimitEnabled {
		store, check, closeStore, err := newRateLimitStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()
		if check != nil {
			checks = append(checks, *check)
		}
		bucket, err := ratelimiter.NewBucket(store, cfg.RateLimit, ratelimiter.WithKeyPrefix("authd"))
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		apiOpts = append(apiOpts, httpapi.WithRateLimiter(bucket))
	}

	cookies := cookie.NewFromConfig(cfg.Cookie)
	gate := auth.NewGate(codec, append(httpapi.GateOptions(cookies, auth.DefaultRefreshCookie),
		auth.WithGateLogger(log.With(logger.Component("gate"))))...)
	api := httpapi.New(svc, gate, append(apiOpts,
		httpapi.WithCookies(cookies),
		httpapi.WithReadinessChecks(checks...),
	)...)

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log.With(logger.Component("httpserver"))))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, api.Routes())
	})
	if cfg.App.SessionCleanupInterval > 0 {
		g.Go(func() error {
			runJanitor(ctx, svc, cfg.App.SessionCleanupInterval, log.With(logger.Component("janitor")))
			return nil
		})
	}

	log.InfoContext(ctx, "authd started", slog.String("addr", cfg.HTTP.Addr))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("authd stopped")
	return nil
}

// newMediaStorage picks S3 when a bucket is configured and local disk otherwise.
func newMediaStorage(ctx context.Context, cfg config.Config) (file.Storage, error) {
	if cfg.S3.Enabled() {
		return file.NewS3Storage(ctx, cfg.S3)
	}
	return file.NewLocalStorage(cfg.Media.Dir, cfg.Media.BaseURL)
}

// newRateLimitStore shares buckets through Redis when it is configured so
// that limits hold across replicas.
func newRateLimitStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ratelimiter.Store, *httpserver.Check, func(), error) {
	if !cfg.Redis.Enabled() {
		store := ratelimiter.NewMemoryStore()
		return store, nil, store.Close, nil
	}
	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.InfoContext(ctx, "rate limits stored in redis")
	check := &httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)}
	return ratelimiter.NewRedisStore(client), check, func() { _ = client.Close() }, nil
}

// runJanitor purges expired and revoked refresh sessions until ctx ends.
func runJanitor(ctx context.Context, svc *auth.Service, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeSessions(ctx); err != nil && ctx.Err() == nil {
				log.ErrorContext(ctx, "purge sessions", logger.Error(err))
			}
		}
	}
}
