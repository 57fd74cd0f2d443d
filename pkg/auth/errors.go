package auth

import "errors"

// Credential and token errors
var (
	ErrInvalidCredentials = errors.New("auth.invalid_credentials")
	ErrTokenExpired       = errors.New("auth.token_expired")
	ErrInvalidToken       = errors.New("auth.invalid_token")
	ErrTokenReused        = errors.New("auth.token_reused")
	ErrUnauthorized       = errors.New("auth.unauthorized")
	ErrForbidden          = errors.New("auth.forbidden")
)

// Account errors
var (
	ErrUserNotFound         = errors.New("auth.user_not_found")
	ErrHandleAlreadyExists  = errors.New("auth.handle_already_exists")
	ErrEmailAlreadyExists   = errors.New("auth.email_already_exists")
	ErrEmailAlreadyVerified = errors.New("auth.email_already_verified")
	ErrTokenEmailMismatch   = errors.New("auth.token_email_mismatch")
	ErrPasswordAlreadySet   = errors.New("auth.password_already_set")
)

// OAuth errors
var (
	ErrAccountAlreadyLinked       = errors.New("auth.account_already_linked")
	ErrOAuthExchangeFailed        = errors.New("auth.oauth_exchange_failed")
	ErrCannotUnlinkLastConnection = errors.New("auth.cannot_unlink_last_connection")
	ErrConnectionNotFound         = errors.New("auth.connection_not_found")
	ErrUnverifiedEmail            = errors.New("auth.unverified_email")
	ErrUnknownProvider            = errors.New("auth.unknown_provider")
	ErrNoProviderEmail            = errors.New("auth.no_provider_email")
	ErrIncompleteOAuthConfig      = errors.New("auth.incomplete_oauth_config")
)

// ErrDatabase wraps storage failures that are safe to retry.
var ErrDatabase = errors.New("auth.database")

var domainErrors = []error{
	ErrInvalidCredentials, ErrTokenExpired, ErrInvalidToken, ErrTokenReused,
	ErrUnauthorized, ErrForbidden, ErrUserNotFound, ErrHandleAlreadyExists,
	ErrEmailAlreadyExists, ErrEmailAlreadyVerified, ErrTokenEmailMismatch,
	ErrPasswordAlreadySet, ErrAccountAlreadyLinked, ErrOAuthExchangeFailed,
	ErrCannotUnlinkLastConnection, ErrConnectionNotFound, ErrUnverifiedEmail,
	ErrUnknownProvider, ErrNoProviderEmail, ErrDatabase,
}

// dbErr passes domain errors through and wraps everything else in ErrDatabase.
func dbErr(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return errors.Join(ErrDatabase, err)
}

// isUniqueConflict reports errors produced by a unique constraint.
func isUniqueConflict(err error) bool {
	return errors.Is(err, ErrHandleAlreadyExists) ||
		errors.Is(err, ErrEmailAlreadyExists) ||
		errors.Is(err, ErrAccountAlreadyLinked)
}

// lostRace marks a unique violation raised by an insert, as opposed to a
// conflict found by a lookup beforehand.
type lostRace struct{ err error }

func (e *lostRace) Error() string { return e.err.Error() }
func (e *lostRace) Unwrap() error { return e.err }

// markRace tags insert errors that a retry may resolve.
func markRace(err error) error {
	if isUniqueConflict(err) {
		return &lostRace{err: err}
	}
	return err
}

// asLostRace returns the insert error behind a lost race, or nil when err
// did not come from one.
func asLostRace(err error) error {
	var race *lostRace
	if errors.As(err, &race) {
		return race.err
	}
	return nil
}
