package password

import "errors"

var (
	ErrTooLong       = errors.New("password: longer than 72 bytes")
	ErrMalformedHash = errors.New("password: malformed hash")
)
