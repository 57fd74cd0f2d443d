package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/logger"
)

// Service implements the sign-up, sign-in, rotation, identity resolution and
// email token flows on top of a Storage.
type Service struct {
	storage  Storage
	codec    *jwt.Codec
	hasher   PasswordHasher
	oauth    *OAuthClient
	notifier Notifier
	avatars  AvatarImporter
	logger   *slog.Logger
	now      func() time.Time

	requireVerifiedMerge bool
	backgroundTimeout    time.Duration
	bg                   sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the wall clock used for expiry checks and timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNotifier sets the mailer for verification and reset emails.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAvatarImporter enables avatar import for users created through OAuth.
func WithAvatarImporter(a AvatarImporter) ServiceOption {
	return func(s *Service) {
		s.avatars = a
	}
}

// WithOAuthClient sets the provider registry used by OAuthSignIn and LinkProvider.
func WithOAuthClient(c *OAuthClient) ServiceOption {
	return func(s *Service) {
		s.oauth = c
	}
}

// WithConfig applies a Config.
func WithConfig(cfg Config) ServiceOption {
	return func(s *Service) {
		s.requireVerifiedMerge = cfg.RequireVerifiedEmailForMerge
		if cfg.BackgroundTimeout > 0 {
			s.backgroundTimeout = cfg.BackgroundTimeout
		}
	}
}

// WithRequireVerifiedEmailForMerge toggles the verified-email requirement
// for merging an OAuth identity into an existing account.
func WithRequireVerifiedEmailForMerge(require bool) ServiceOption {
	return func(s *Service) {
		s.requireVerifiedMerge = require
	}
}

// NewService creates the auth service.
func NewService(storage Storage, codec *jwt.Codec, hasher PasswordHasher, opts ...ServiceOption) *Service {
	s := &Service{
		storage:              storage,
		codec:                codec,
		hasher:               hasher,
		oauth:                &OAuthClient{},
		notifier:             noopNotifier{},
		logger:               logger.Discard(),
		now:                  time.Now,
		requireVerifiedMerge: true,
		backgroundTimeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"))
	return s
}

// Wait blocks until background work (avatar imports, outgoing mail) finishes.
func (s *Service) Wait() {
	s.bg.Wait()
}

// background runs fn detached from the request, bounded by the background
// timeout. Failures are logged.
func (s *Service) background(ctx context.Context, task string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.backgroundTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.WarnContext(ctx, "background task failed", logger.Event(task), logger.Error(err))
		}
	}()
}
