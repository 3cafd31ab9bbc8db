package auth

import (
	"context"
	"sync"
	"time"

	stderrors "errors"
)

var ErrKeyNotFound = stderrors.New("key not found")

// RevocationStore keeps revocation marks until their own expiry.
// Implementations must be safe for concurrent use.
type RevocationStore interface {
	// Put inserts or overwrites key. The entry must stop being readable at
	// expiresAt; an expiry that has already passed writes nothing.
	Put(ctx context.Context, key, token string, expiresAt time.Time) error
	// Raise stores mark unless a live entry already holds a value that sorts
	// at or after it, in which case only the later of the two expiries is
	// kept. It must be atomic with respect to concurrent Raise calls.
	Raise(ctx context.Context, key, mark string, expiresAt time.Time) error
	// Lookup returns the stored value or ErrKeyNotFound.
	Lookup(ctx context.Context, key string) (string, error)
	Contains(ctx context.Context, key string) (bool, error)
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore is an in-process RevocationStore for tests and single-node runs.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests to move past expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Put(ctx context.Context, key, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !expiresAt.After(s.now()) {
		return nil
	}
	s.entries[key] = memoryEntry{token: token, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Raise(ctx context.Context, key, mark string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !expiresAt.After(now) {
		return nil
	}
	cur, ok := s.entries[key]
	if ok && now.Before(cur.expiresAt) && cur.token >= mark {
		if expiresAt.After(cur.expiresAt) {
			cur.expiresAt = expiresAt
			s.entries[key] = cur
		}
		return nil
	}
	s.entries[key] = memoryEntry{token: mark, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Lookup(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	entry, ok := s.entries[key]
	now := s.now()
	s.mu.RUnlock()

	if !ok {
		return "", ErrKeyNotFound
	}
	if !now.Before(entry.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == entry {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return "", ErrKeyNotFound
	}
	return entry.token, nil
}

func (s *MemoryStore) Contains(ctx context.Context, key string) (bool, error) {
	_, err := s.Lookup(ctx, key)
	if stderrors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
