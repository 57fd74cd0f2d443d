package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}

// Storage is a minimal blob store keyed by slash-separated paths.
type Storage interface {
	// Put writes size bytes from r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns the public URL for key.
	URL(key string) string
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectContentType sniffs the content type from the first bytes of data.
func DetectContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// IsImage reports whether contentType is a raster image type accepted for
// storage. SVG is excluded because it can carry scripts.
func IsImage(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// ExtensionFor returns the canonical file extension for an image type, or
// an empty string when the type is unknown.
func ExtensionFor(contentType string) string {
	return imageExtensions[contentType]
}

// ValidateMIMEType returns ErrMIMETypeNotAllowed unless contentType is one of allowed.
func ValidateMIMEType(contentType string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(a, contentType) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMIMETypeNotAllowed, contentType)
}

// ReadLimited reads all of r, failing with ErrFileTooLarge once more than
// maxBytes have been read.
func ReadLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return data, nil
}

// CleanKey normalizes a storage key and rejects keys escaping the root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return cleaned, nil
}
