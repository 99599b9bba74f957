package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential pair in process memory
type MemoryStore struct {
	pair Pair
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AccessToken returns the stored access credential
func (m *MemoryStore) AccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pick(m.pair.Access)
}

// RefreshToken returns the stored refresh credential
func (m *MemoryStore) RefreshToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pick(m.pair.Refresh)
}

// Tokens returns the stored pair
func (m *MemoryStore) Tokens(ctx context.Context) (Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pair == (Pair{}) {
		return Pair{}, ErrNotFound
	}
	return m.pair, nil
}

// SetTokens replaces the stored pair
func (m *MemoryStore) SetTokens(ctx context.Context, pair Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	return nil
}

// Clear removes both credentials
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = Pair{}
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
