package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/logger"
	"github.com/mofumofu/authcore/pkg/session"
)

// RefreshCredential is what the refresh gate hands to its handlers: the raw
// cookie value and its decoded claims.
type RefreshCredential struct {
	Token  string
	Claims jwt.RefreshClaims
}

// issuePair mints an access/refresh pair and persists the refresh session
// through st, so it joins whatever transaction st belongs to.
func (s *Service) issuePair(ctx context.Context, st Storage, userID uuid.UUID, meta ClientMeta) (TokenPair, error) {
	access, err := s.codec.MintAccess(userID)
	if err != nil {
		return TokenPair{}, mintErr(err)
	}
	refresh, err := s.codec.MintRefresh(userID)
	if err != nil {
		return TokenPair{}, mintErr(err)
	}

	rec := session.Record{
		ID:        refresh.JTI,
		UserID:    userID,
		Token:     refresh.Token,
		IssuedAt:  refresh.IssuedAt,
		ExpiresAt: refresh.ExpiresAt,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := st.Sessions().Create(ctx, rec); err != nil {
		return TokenPair{}, dbErr(err)
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  refresh.IssuedAt.Add(s.codec.Config().AccessTokenTTL),
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token. The old session is revoked and a new one
// created in the same transaction, so a token rotates at most once.
//
// Presenting a token whose session was already revoked is treated as theft:
// every session of the user is revoked and ErrTokenReused is returned.
func (s *Service) Refresh(ctx context.Context, cred RefreshCredential, meta ClientMeta) (TokenPair, error) {
	if cred.Claims.Expired(s.now()) {
		return TokenPair{}, ErrTokenExpired
	}

	var (
		pair   TokenPair
		reused bool
	)
	err := s.storage.InTx(ctx, func(tx Storage) error {
		sessions := tx.Sessions()

		rec, err := sessions.FindByJTIAndToken(ctx, cred.Claims.ID, cred.Token)
		if errors.Is(err, session.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return dbErr(err)
		}
		if rec.UserID != cred.Claims.Subject {
			return ErrInvalidToken
		}
		if rec.IsRevoked() {
			reused = true
			return s.revokeFamily(ctx, tx, rec.UserID)
		}

		if _, err := tx.UserByID(ctx, rec.UserID); err != nil {
			return dbErr(err)
		}

		err = sessions.Revoke(ctx, rec.ID, s.now())
		switch {
		case errors.Is(err, session.ErrAlreadyRevoked):
			reused = true
			return s.revokeFamily(ctx, tx, rec.UserID)
		case errors.Is(err, session.ErrNotFound):
			return ErrInvalidToken
		case err != nil:
			return dbErr(err)
		}

		pair, err = s.issuePair(ctx, tx, rec.UserID, meta)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	if reused {
		s.logger.WarnContext(ctx, "refresh token reuse detected",
			logger.UserID(cred.Claims.Subject),
			logger.SessionID(cred.Claims.ID),
			logger.ClientIP(meta.IP),
		)
		return TokenPair{}, ErrTokenReused
	}
	return pair, nil
}

func (s *Service) revokeFamily(ctx context.Context, tx Storage, userID uuid.UUID) error {
	n, err := tx.Sessions().RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return dbErr(err)
	}
	s.logger.DebugContext(ctx, "revoked all sessions", logger.UserID(userID), slog.Int64("count", n))
	return nil
}

// SignOut revokes the session behind cred. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, cred RefreshCredential) error {
	return s.storage.InTx(ctx, func(tx Storage) error {
		rec, err := tx.Sessions().FindByJTIAndToken(ctx, cred.Claims.ID, cred.Token)
		if errors.Is(err, session.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return dbErr(err)
		}

		err = tx.Sessions().Revoke(ctx, rec.ID, s.now())
		if err != nil && !errors.Is(err, session.ErrAlreadyRevoked) {
			return dbErr(err)
		}
		return nil
	})
}

// ListSessions returns the user's active refresh sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]session.Record, error) {
	recs, err := s.storage.Sessions().ListActive(ctx, userID, s.now())
	if err != nil {
		return nil, dbErr(err)
	}
	return recs, nil
}

// CleanupExpiredSessions deletes expired and revoked sessions. The actor
// must be an admin.
func (s *Service) CleanupExpiredSessions(ctx context.Context, actorID uuid.UUID) (int64, error) {
	actor, err := s.storage.UserByID(ctx, actorID)
	if err != nil {
		return 0, dbErr(err)
	}
	if !actor.Role.AtLeast(RoleAdmin) {
		return 0, ErrForbidden
	}
	return s.PurgeSessions(ctx)
}

// PurgeSessions deletes sessions that expired or were revoked before now.
// It backs both the admin endpoint and the periodic janitor.
func (s *Service) PurgeSessions(ctx context.Context) (int64, error) {
	n, err := s.storage.Sessions().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, dbErr(err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "purged sessions", slog.Int64("count", n))
	}
	return n, nil
}

// mintErr wraps codec failures, which are never expected at runtime.
func mintErr(err error) error {
	return fmt.Errorf("auth: mint token: %w", err)
}
