// Package avatar copies OAuth profile pictures into owned file storage.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/auth"
	"github.com/mofumofu/authcore/pkg/file"
	"github.com/mofumofu/authcore/pkg/logger"
)

// DefaultMaxSize bounds downloaded avatars.
const DefaultMaxSize = 4 << 20

var (
	ErrDownloadFailed = errors.New("avatar: download failed")
	ErrNotAnImage     = errors.New("avatar: content is not a supported image")
)

// Importer implements auth.AvatarImporter.
type Importer struct {
	storage file.Storage
	client  *http.Client
	maxSize int64
	prefix  string
	logger  *slog.Logger
}

var _ auth.AvatarImporter = (*Importer)(nil)

// Option configures an Importer.
type Option func(*Importer)

// WithHTTPClient sets the client used to download avatars.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Importer) {
		if c != nil {
			i.client = c
		}
	}
}

// WithMaxSize overrides DefaultMaxSize.
func WithMaxSize(n int64) Option {
	return func(i *Importer) {
		if n > 0 {
			i.maxSize = n
		}
	}
}

// WithKeyPrefix sets the storage key prefix. Defaults to "avatars".
func WithKeyPrefix(prefix string) Option {
	return func(i *Importer) {
		i.prefix = prefix
	}
}

// WithLogger sets the importer logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Importer writing to storage.
func New(storage file.Storage, opts ...Option) *Importer {
	i := &Importer{
		storage: storage,
		client:  &http.Client{Timeout: 15 * time.Second},
		maxSize: DefaultMaxSize,
		prefix:  "avatars",
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import downloads sourceURL and stores it under <prefix>/<userID><ext>.
// The stored URL is returned.
func (i *Importer) Import(ctx context.Context, userID uuid.UUID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", errors.Join(ErrDownloadFailed, err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	data, err := file.ReadLimited(resp.Body, i.maxSize)
	if err != nil {
		return "", err
	}
	contentType := file.DetectContentType(data)
	if !file.IsImage(contentType) {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, contentType)
	}

	key := i.prefix + "/" + userID.String() + file.ExtensionFor(contentType)
	obj, err := i.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return "", fmt.Errorf("avatar: store: %w", err)
	}

	i.logger.DebugContext(ctx, "avatar imported",
		logger.UserID(userID), slog.String("key", obj.Key), slog.Int64("size", obj.Size))
	return obj.URL, nil
}
