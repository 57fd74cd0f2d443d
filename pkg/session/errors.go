package session

import "errors"

var (
	ErrNotFound       = errors.New("session.not_found")
	ErrConflict       = errors.New("session.conflict")
	ErrAlreadyRevoked = errors.New("session.already_revoked")
	ErrInvalidRecord  = errors.New("session.invalid_record")
)
