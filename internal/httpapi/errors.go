package httpapi

import (
	"errors"
	"net/http"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/binder"
	"github.com/mofumofu/authcore/pkg/validator"
)

// HTTPError is the wire form of a failure: a status code and a stable key.
type HTTPError struct {
	Code int    // HTTP status code
	Key  string // machine readable key, e.g. "invalid_credentials"
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrBadRequest       = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnsupportedMedia = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrEntityTooLarge   = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrValidation       = HTTPError{Code: http.StatusUnprocessableEntity, Key: "validation_failed"}
	ErrTooManyRequests  = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternal         = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
)

// domainErrors maps the auth taxonomy to responses. Joined errors match the
// first entry they wrap.
var domainErrors = []struct {
	target error
	http   HTTPError
}{
	{auth.ErrDatabase, ErrInternal},
	{auth.ErrOAuthExchangeFailed, HTTPError{http.StatusUnauthorized, "oauth_exchange_failed"}},

	{auth.ErrInvalidCredentials, HTTPError{http.StatusUnauthorized, "invalid_credentials"}},
	{auth.ErrTokenExpired, HTTPError{http.StatusUnauthorized, "token_expired"}},
	{auth.ErrInvalidToken, HTTPError{http.StatusUnauthorized, "invalid_token"}},
	{auth.ErrTokenReused, HTTPError{http.StatusUnauthorized, "token_reused"}},
	{auth.ErrUnauthorized, HTTPError{http.StatusUnauthorized, "unauthorized"}},

	{auth.ErrUnverifiedEmail, HTTPError{http.StatusForbidden, "unverified_email"}},
	{auth.ErrForbidden, HTTPError{http.StatusForbidden, "forbidden"}},

	{auth.ErrUserNotFound, HTTPError{http.StatusNotFound, "user_not_found"}},
	{auth.ErrConnectionNotFound, HTTPError{http.StatusNotFound, "connection_not_found"}},

	{auth.ErrHandleAlreadyExists, HTTPError{http.StatusConflict, "handle_already_exists"}},
	{auth.ErrEmailAlreadyExists, HTTPError{http.StatusConflict, "email_already_exists"}},
	{auth.ErrAccountAlreadyLinked, HTTPError{http.StatusConflict, "account_already_linked"}},
	{auth.ErrEmailAlreadyVerified, HTTPError{http.StatusConflict, "email_already_verified"}},
	{auth.ErrPasswordAlreadySet, HTTPError{http.StatusConflict, "password_already_set"}},

	{auth.ErrCannotUnlinkLastConnection, HTTPError{http.StatusBadRequest, "cannot_unlink_last_connection"}},
	{auth.ErrTokenEmailMismatch, HTTPError{http.StatusBadRequest, "token_email_mismatch"}},
	{auth.ErrUnknownProvider, HTTPError{http.StatusBadRequest, "unknown_provider"}},
	{auth.ErrNoProviderEmail, HTTPError{http.StatusBadRequest, "no_provider_email"}},

	{binder.ErrMissingContentType, ErrUnsupportedMedia},
	{binder.ErrUnsupportedMediaType, ErrUnsupportedMedia},
	{binder.ErrBodyTooLarge, ErrEntityTooLarge},
	{binder.ErrFailedToParseJSON, ErrBadRequest},
}

// toHTTPError classifies err. Unknown errors are internal.
func toHTTPError(err error) HTTPError {
	var he HTTPError
	if errors.As(err, &he) {
		return he
	}
	if validator.IsValidationError(err) {
		return ErrValidation
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			return m.http
		}
	}
	return ErrInternal
}
