package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// NominatorStore is an in-memory implementation of storage.NominatorStore.
type NominatorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.NominatorRecord // keyed by address
}

// NewNominatorStore creates a new in-memory nominator store.
func NewNominatorStore() *NominatorStore {
	return &NominatorStore{
		data: make(map[string]*domain.NominatorRecord),
	}
}

// Put inserts or replaces a nominator.
func (s *NominatorStore) Put(_ context.Context, n *domain.NominatorRecord) error {
	if n == nil || n.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nomCopy := *n
	nomCopy.Targets = append([]string(nil), n.Targets...)
	s.data[n.Address] = &nomCopy
	return nil
}

// GetByAddress retrieves a nominator. Returns ErrNotFound if not exists.
func (s *NominatorStore) GetByAddress(_ context.Context, address string) (*domain.NominatorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	nomCopy := *n
	return &nomCopy, nil
}

// FindByAddresses retrieves the nominators with the given addresses.
func (s *NominatorStore) FindByAddresses(_ context.Context, addresses []string) ([]*domain.NominatorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.NominatorRecord
	for _, a := range addresses {
		if n, exists := s.data[a]; exists {
			nomCopy := *n
			result = append(result, &nomCopy)
		}
	}
	return result, nil
}

var _ storage.NominatorStore = (*NominatorStore)(nil)
