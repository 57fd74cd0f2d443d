package session

import (
	"cmp"
	"context"
	"crypto/subtle"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Clone returns an independent copy of the store's contents.
func (m *MemoryStore) Clone() *MemoryStore {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := &MemoryStore{records: make(map[string]Record, len(m.records))}
	for id, rec := range m.records {
		c.records[id] = copyRecord(rec)
	}
	return c
}

func (m *MemoryStore) Create(_ context.Context, rec Record) error {
	if rec.ID == "" || rec.Token == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; exists {
		return ErrConflict
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

func (m *MemoryStore) FindByJTIAndToken(_ context.Context, jti, token string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[jti]
	m.mu.RUnlock()

	if !ok || subtle.ConstantTimeCompare([]byte(rec.Token), []byte(token)) != 1 {
		return nil, ErrNotFound
	}
	out := copyRecord(rec)
	return &out, nil
}

func (m *MemoryStore) Revoke(_ context.Context, jti string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[jti]
	if !ok {
		return ErrNotFound
	}
	if rec.IsRevoked() {
		return ErrAlreadyRevoked
	}
	rec.RevokedAt = &at
	m.records[jti] = rec
	return nil
}

func (m *MemoryStore) RevokeAllForUser(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, rec := range m.records {
		if rec.UserID != userID || rec.IsRevoked() {
			continue
		}
		revokedAt := at
		rec.RevokedAt = &revokedAt
		m.records[id] = rec
		n++
	}
	return n, nil
}

func (m *MemoryStore) ListActive(_ context.Context, userID uuid.UUID, now time.Time) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, rec := range m.records {
		if rec.UserID == userID && rec.IsActive(now) {
			out = append(out, copyRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		return cmp.Or(b.IssuedAt.Compare(a.IssuedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, rec := range m.records {
		if rec.ExpiresAt.Before(before) || (rec.RevokedAt != nil && rec.RevokedAt.Before(before)) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func copyRecord(rec Record) Record {
	if rec.RevokedAt != nil {
		t := *rec.RevokedAt
		rec.RevokedAt = &t
	}
	return rec
}
