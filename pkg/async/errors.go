package async

import "errors"

var (
	ErrTimeout    = errors.New("async: operation timed out waiting for future completion")
	ErrPoolClosed = errors.New("async: pool is closed")
	ErrPanic      = errors.New("async: function panicked")
)
