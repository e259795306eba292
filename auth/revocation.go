package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore is the process-wide set of revoked token strings.
// Implementations must be safe for concurrent Add and IsRevoked.
type RevocationStore interface {
	// Add records token as revoked. expiresAt is the token's natural expiry;
	// past that instant the entry may be dropped.
	Add(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryRevocationStore keeps revocations in process memory. Entries live until
// Prune removes those whose natural expiry has passed, or until restart.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (m *MemoryRevocationStore) Add(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.entries[token]; ok && prev.After(expiresAt) {
		return nil
	}
	m.entries[token] = expiresAt
	return nil
}

func (m *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[token]
	return ok, nil
}

// Prune drops entries whose token expired at or before now and returns how many
// were removed. A pruned token still fails validation as expired.
func (m *MemoryRevocationStore) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for token, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, token)
			removed++
		}
	}
	return removed
}

func (m *MemoryRevocationStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
