package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// ErrUserNotFound is returned by MemoryUserStore when RequireExisting is set
// and the user was never seeded.
var ErrUserNotFound = errors.New("user not found")

// MemoryUserStore is a map-backed UserStore. It is safe for concurrent use.
type MemoryUserStore struct {
	// RequireExisting mirrors Firestore's Update semantics: writing to an
	// unknown user fails instead of creating a record.
	RequireExisting bool

	mu     sync.RWMutex
	users  map[string]types.SubscriptionStatus
	writes int
}

// NewMemoryUserStore creates an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]types.SubscriptionStatus)}
}

// Seed adds a user with the given status.
func (m *MemoryUserStore) Seed(userID string, status types.SubscriptionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = status
}

func (m *MemoryUserStore) SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok && m.RequireExisting {
		return fmt.Errorf("memory store: %q: %w", userID, ErrUserNotFound)
	}
	m.users[userID] = status
	m.writes++
	return nil
}

// GetUser returns the stored record, or ErrUserNotFound.
func (m *MemoryUserStore) GetUser(_ context.Context, userID string) (*types.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &types.UserRecord{ID: userID, SubscriptionStatus: status}, nil
}

// Writes returns how many successful writes were made.
func (m *MemoryUserStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
