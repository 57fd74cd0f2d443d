package postgres

import (
	"errors"
	"fmt"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/pg"
	"github.com/mofumofu/authcore/pkg/session"
)

// ErrDuplicateID is returned when a primary key is inserted twice.
var ErrDuplicateID = errors.New("postgres: duplicate id")

var uniqueViolations = map[string]error{
	"users_pkey":                          ErrDuplicateID,
	"users_handle_key":                    auth.ErrHandleAlreadyExists,
	"users_email_key":                     auth.ErrEmailAlreadyExists,
	"oauth_connections_pkey":              ErrDuplicateID,
	"oauth_connections_identity_key":      auth.ErrAccountAlreadyLinked,
	"oauth_connections_user_provider_key": auth.ErrAccountAlreadyLinked,
	"refresh_tokens_pkey":                 session.ErrConflict,
}

var foreignKeyViolations = map[string]error{
	"oauth_connections_user_id_fkey": auth.ErrUserNotFound,
	"refresh_tokens_user_id_fkey":    session.ErrInvalidRecord,
}

// mapError translates constraint violations into sentinels and wraps
// everything else with the failed operation.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	name := pg.ConstraintName(err)
	switch {
	case pg.IsDuplicateKeyError(err):
		if target, ok := uniqueViolations[name]; ok {
			return target
		}
	case pg.IsForeignKeyViolationError(err):
		if target, ok := foreignKeyViolations[name]; ok {
			return target
		}
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
