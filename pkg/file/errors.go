package file

import "errors"

var (
	ErrInvalidPath   = errors.New("file: invalid path")
	ErrInvalidConfig = errors.New("file: invalid configuration")
	ErrFileNotFound  = errors.New("file: not found")
	ErrFileTooLarge  = errors.New("file: size exceeds maximum allowed size")
	ErrEmptyFile     = errors.New("file: empty content")

	ErrMIMETypeNotAllowed = errors.New("file: MIME type is not allowed")

	ErrFailedToReadFile        = errors.New("file: failed to read")
	ErrFailedToWriteFile       = errors.New("file: failed to write")
	ErrFailedToDeleteFile      = errors.New("file: failed to delete")
	ErrFailedToCreateDirectory = errors.New("file: failed to create directory")
	ErrFailedToGetAbsolutePath = errors.New("file: failed to get absolute path")

	// S3 classification
	ErrBucketNotFound     = errors.New("file: bucket not found")
	ErrAccessDenied       = errors.New("file: access denied")
	ErrServiceUnavailable = errors.New("file: service temporarily unavailable")
	ErrOperationTimeout   = errors.New("file: operation timed out")
	ErrOperationCanceled  = errors.New("file: operation canceled")
	ErrFailedToLoadConfig = errors.New("file: failed to load AWS config")
)
