package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/logger"
	"github.com/mofumofu/authcore/pkg/sanitizer"
	"github.com/mofumofu/authcore/pkg/validator"
)

// maxResolveAttempts bounds re-resolution after losing an insert race.
const maxResolveAttempts = 3

// ResolveOrCreate maps an external identity to exactly one user:
//
//  1. an existing connection for (provider, provider user id) wins;
//  2. otherwise an account with the same email gets this provider linked;
//  3. otherwise a new account is created, which requires requestedHandle.
//
// Each attempt runs in one transaction. When a concurrent request inserts
// the same identity first, the unique constraint fails the insert and the
// whole resolution is retried.
func (s *Service) ResolveOrCreate(ctx context.Context, id Identity, requestedHandle *string) (Resolution, error) {
	id.Email = sanitizer.NormalizeEmail(id.Email)
	id.Name = sanitizer.NormalizeName(id.Name)
	if !id.Provider.Valid() {
		return Resolution{}, ErrUnknownProvider
	}
	if id.ProviderUserID == "" {
		return Resolution{}, fmt.Errorf("%w: empty provider user id", ErrOAuthExchangeFailed)
	}

	var handle string
	if requestedHandle != nil {
		handle = sanitizer.NormalizeHandle(*requestedHandle)
	}

	var (
		res Resolution
		err error
	)
	for attempt := 1; attempt <= maxResolveAttempts; attempt++ {
		res, err = s.resolveOnce(ctx, id, requestedHandle != nil, handle)
		cause := asLostRace(err)
		if cause == nil {
			break
		}
		err = cause
		if attempt == maxResolveAttempts {
			break
		}
		s.logger.DebugContext(ctx, "identity insert raced, re-resolving",
			logger.Provider(string(id.Provider)), logger.Attempt(attempt), logger.Error(err))
	}
	if err != nil {
		return Resolution{}, err
	}

	if res.IsNewUser {
		s.logger.InfoContext(ctx, "user created from oauth identity",
			logger.UserID(res.User.ID), logger.Provider(string(id.Provider)))
		s.importAvatar(ctx, res.User.ID, id.AvatarURL)
		s.sendVerification(ctx, res.User)
	}
	return res, nil
}

func (s *Service) resolveOnce(ctx context.Context, id Identity, hasHandle bool, handle string) (Resolution, error) {
	var res Resolution
	err := s.storage.InTx(ctx, func(tx Storage) error {
		user, err := tx.UserByConnection(ctx, id.Provider, id.ProviderUserID)
		if err == nil {
			res = Resolution{User: *user}
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return dbErr(err)
		}

		if id.Email != "" {
			user, err = tx.UserByEmail(ctx, id.Email)
			switch {
			case err == nil:
				if s.requireVerifiedMerge && !id.EmailVerified {
					return ErrUnverifiedEmail
				}
				if err := s.createConnection(ctx, tx, user.ID, id.Provider, id.ProviderUserID); err != nil {
					return markRace(err)
				}
				res = Resolution{User: *user}
				return nil
			case !errors.Is(err, ErrUserNotFound):
				return dbErr(err)
			}
		}

		if !hasHandle {
			return ErrUserNotFound
		}
		if err := validator.Apply(handleRule(handle)); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, handle, id.Email); err != nil {
			// The identity may have been committed since the first lookup.
			if user, lerr := tx.UserByConnection(ctx, id.Provider, id.ProviderUserID); lerr == nil {
				res = Resolution{User: *user}
				return nil
			}
			return err
		}

		now := s.now()
		name := id.Name
		if name == "" {
			name = handle
		}
		created := User{
			ID:         uuid.New(),
			Name:       name,
			Handle:     handle,
			Email:      id.Email,
			IsVerified: id.Email != "" && id.EmailVerified,
			Role:       RoleMember,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateUser(ctx, &created); err != nil {
			return markRace(dbErr(err))
		}
		if err := s.createConnection(ctx, tx, created.ID, id.Provider, id.ProviderUserID); err != nil {
			return markRace(err)
		}
		res = Resolution{User: created, IsNewUser: true}
		return nil
	})
	return res, err
}

func (s *Service) createConnection(ctx context.Context, tx Storage, userID uuid.UUID, provider Provider, providerUserID string) error {
	err := tx.CreateConnection(ctx, &OAuthConnection{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: providerUserID,
		CreatedAt:      s.now(),
	})
	return dbErr(err)
}

// Link attaches a provider identity to an existing user.
func (s *Service) Link(ctx context.Context, userID uuid.UUID, provider Provider, providerUserID string) error {
	if !provider.Valid() {
		return ErrUnknownProvider
	}
	return s.storage.InTx(ctx, func(tx Storage) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return dbErr(err)
		}
		return s.createConnection(ctx, tx, userID, provider, providerUserID)
	})
}

// Unlink removes a provider connection. The user row is locked while the
// remaining factors are counted, so two concurrent unlinks cannot leave an
// account without any way to sign in.
func (s *Service) Unlink(ctx context.Context, userID uuid.UUID, provider Provider) error {
	if !provider.Valid() {
		return ErrUnknownProvider
	}
	return s.storage.InTx(ctx, func(tx Storage) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return dbErr(err)
		}
		conns, err := tx.ConnectionsByUser(ctx, userID)
		if err != nil {
			return dbErr(err)
		}

		linked := false
		for _, c := range conns {
			if c.Provider == provider {
				linked = true
				break
			}
		}
		if !linked {
			return ErrConnectionNotFound
		}
		if !user.HasPassword() && len(conns) == 1 {
			return ErrCannotUnlinkLastConnection
		}
		return dbErr(tx.DeleteConnection(ctx, userID, provider))
	})
}

// Connections lists the providers linked to the user.
func (s *Service) Connections(ctx context.Context, userID uuid.UUID) ([]OAuthConnection, error) {
	conns, err := s.storage.ConnectionsByUser(ctx, userID)
	if err != nil {
		return nil, dbErr(err)
	}
	return conns, nil
}

func (s *Service) importAvatar(ctx context.Context, userID uuid.UUID, sourceURL string) {
	if s.avatars == nil || sourceURL == "" {
		return
	}
	s.background(ctx, "avatar_import", func(ctx context.Context) error {
		url, err := s.avatars.Import(ctx, userID, sourceURL)
		if err != nil {
			return err
		}
		return s.storage.SetAvatarURL(ctx, userID, url, s.now())
	})
}
