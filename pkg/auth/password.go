package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/jwt"
	"github.com/mofumofu/authcore/pkg/logger"
	"github.com/mofumofu/authcore/pkg/sanitizer"
)

// SignUp creates a local account and signs it in. A verification email is
// sent in the background.
func (s *Service) SignUp(ctx context.Context, in SignUpInput, meta ClientMeta) (*AuthResult, error) {
	in.Name = sanitizer.NormalizeName(in.Name)
	in.Handle = sanitizer.NormalizeHandle(in.Handle)
	in.Email = sanitizer.NormalizeEmail(in.Email)
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := User{
		ID:           uuid.New(),
		Name:         in.Name,
		Handle:       in.Handle,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var pair TokenPair
	err = s.storage.InTx(ctx, func(tx Storage) error {
		if err := ensureFree(ctx, tx, user.Handle, user.Email); err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, &user); err != nil {
			return dbErr(err)
		}
		pair, err = s.issuePair(ctx, tx, user.ID, meta)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", logger.UserID(user.ID))
	s.sendVerification(ctx, user)

	return &AuthResult{User: user, Tokens: pair, IsNewUser: true}, nil
}

// ensureFree checks handle and email uniqueness ahead of the insert so the
// caller gets a precise error. The unique constraints remain the backstop.
func ensureFree(ctx context.Context, tx Storage, handle, email string) error {
	if _, err := tx.UserByHandle(ctx, handle); err == nil {
		return ErrHandleAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return dbErr(err)
	}
	if email == "" {
		return nil
	}
	if _, err := tx.UserByEmail(ctx, email); err == nil {
		return ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return dbErr(err)
	}
	return nil
}

// SignIn authenticates with an email address or handle and a password.
func (s *Service) SignIn(ctx context.Context, in SignInInput, meta ClientMeta) (*AuthResult, error) {
	if err := validateSignIn(in); err != nil {
		return nil, err
	}

	var (
		user *User
		err  error
	)
	if strings.Contains(in.Login, "@") {
		user, err = s.storage.UserByEmail(ctx, sanitizer.NormalizeEmail(in.Login))
	} else {
		user, err = s.storage.UserByHandle(ctx, sanitizer.NormalizeHandle(in.Login))
	}
	if err != nil {
		return nil, dbErr(err)
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "sign-in rejected", logger.UserID(user.ID), logger.ClientIP(meta.IP))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, s.storage, user.ID, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: *user, Tokens: pair}, nil
}

// SetPassword adds a local password to an account that has none.
func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := validatePassword("password", password); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return err
	}

	return s.storage.InTx(ctx, func(tx Storage) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return dbErr(err)
		}
		if user.HasPassword() {
			return ErrPasswordAlreadySet
		}
		return dbErr(tx.UpdatePassword(ctx, userID, hash, s.now()))
	})
}

// ForgotPassword mails a reset link when the address belongs to an account.
// It reports success either way so callers cannot probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return dbErr(err)
	}

	token, err := s.codec.MintPasswordReset(user.ID, user.Email, passwordStamp(user.PasswordHash))
	if err != nil {
		return mintErr(err)
	}
	s.background(ctx, "password_reset_email", func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, user.Email, user.Name, token)
	})
	return nil
}

// ResetPassword replaces the password named by a reset token and revokes
// every session of the user. A token only works while the password it was
// minted against is still current, which makes it single use.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword("new_password", newPassword); err != nil {
		return err
	}

	claims, err := s.codec.DecodePasswordReset(token)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.Expired(s.now()) {
		return ErrTokenExpired
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	err = s.storage.InTx(ctx, func(tx Storage) error {
		user, err := tx.LockUser(ctx, claims.Subject)
		if err != nil {
			return dbErr(err)
		}
		if user.Email != claims.Email {
			return ErrTokenEmailMismatch
		}
		if passwordStamp(user.PasswordHash) != claims.Stamp {
			return ErrInvalidToken
		}

		now := s.now()
		if err := tx.UpdatePassword(ctx, user.ID, hash, now); err != nil {
			return dbErr(err)
		}
		return s.revokeFamily(ctx, tx, user.ID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset", logger.UserID(claims.Subject))
	return nil
}

// passwordStamp fingerprints a password hash for reset tokens. An account
// without a password has an empty stamp.
func passwordStamp(hash string) string {
	if hash == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(hash))
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}

// VerifyEmail marks the address named by a verification token as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	claims, err := s.codec.DecodeEmailVerification(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Expired(s.now()) {
		return nil, ErrTokenExpired
	}

	var user *User
	err = s.storage.InTx(ctx, func(tx Storage) error {
		user, err = tx.LockUser(ctx, claims.Subject)
		if err != nil {
			return dbErr(err)
		}
		if user.Email != claims.Email {
			return ErrTokenEmailMismatch
		}
		if user.IsVerified {
			return ErrEmailAlreadyVerified
		}
		now := s.now()
		if err := tx.MarkVerified(ctx, user.ID, now); err != nil {
			return dbErr(err)
		}
		user.IsVerified = true
		user.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResendVerification mails a fresh verification link.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.storage.UserByEmail(ctx, sanitizer.NormalizeEmail(email))
	if err != nil {
		return dbErr(err)
	}
	if user.IsVerified {
		return ErrEmailAlreadyVerified
	}
	s.sendVerification(ctx, *user)
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user User) {
	if user.Email == "" || user.IsVerified {
		return
	}
	token, err := s.codec.MintEmailVerification(user.ID, user.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "mint verification token", logger.UserID(user.ID), logger.Error(err))
		return
	}
	s.background(ctx, "verification_email", func(ctx context.Context) error {
		return s.notifier.SendVerification(ctx, user.Email, user.Name, token)
	})
}

// UserByID returns the user with the given ID.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.storage.UserByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}

// Authenticate decodes an access token and checks its expiry.
func (s *Service) Authenticate(token string) (jwt.AccessClaims, error) {
	claims, err := s.codec.DecodeAccess(token)
	if err != nil {
		return jwt.AccessClaims{}, ErrInvalidToken
	}
	if claims.Expired(s.now()) {
		return jwt.AccessClaims{}, ErrTokenExpired
	}
	return claims, nil
}
