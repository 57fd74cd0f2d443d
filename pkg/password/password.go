package password

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mofumofu/authcore/pkg/async"
)

// maxLength is the bcrypt input limit; longer inputs would be silently truncated.
const maxLength = 72

// Hasher hashes and verifies passwords with bcrypt on a bounded worker pool.
type Hasher struct {
	cost int
	pool *async.Pool
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithCost sets the bcrypt cost. Values outside bcrypt's range are ignored.
func WithCost(cost int) Option {
	return func(h *Hasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithPool runs hashing on the given pool instead of a private one.
func WithPool(p *async.Pool) Option {
	return func(h *Hasher) {
		if p != nil {
			h.pool = p
		}
	}
}

// NewHasher creates a Hasher using bcrypt.DefaultCost and a GOMAXPROCS-sized pool.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	if h.pool == nil {
		h.pool = async.NewPool(0)
	}
	return h
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > maxLength {
		return "", ErrTooLong
	}
	hash, err := async.Run(ctx, h.pool, func(context.Context) ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(password), h.cost)
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares password with hash in constant time.
// A mismatch is reported as (false, nil); a malformed hash is an error.
func (h *Hasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if hash == "" {
		return false, ErrMalformedHash
	}
	if len(password) > maxLength {
		return false, nil
	}
	_, err := async.Run(ctx, h.pool, func(context.Context) (struct{}, error) {
		return struct{}{}, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false, err
	default:
		return false, errors.Join(ErrMalformedHash, err)
	}
}
