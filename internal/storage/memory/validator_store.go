package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// ValidatorStore is an in-memory implementation of storage.ValidatorStore.
type ValidatorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ValidatorRecord // keyed by id
}

// NewValidatorStore creates a new in-memory validator store.
func NewValidatorStore() *ValidatorStore {
	return &ValidatorStore{
		data: make(map[string]*domain.ValidatorRecord),
	}
}

// Put inserts or replaces a validator.
func (s *ValidatorStore) Put(_ context.Context, v *domain.ValidatorRecord) error {
	if v == nil || v.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	valCopy := *v
	s.data[v.ID] = &valCopy
	return nil
}

// GetByID retrieves a validator. Returns ErrNotFound if not exists.
func (s *ValidatorStore) GetByID(_ context.Context, id string) (*domain.ValidatorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	valCopy := *v
	return &valCopy, nil
}

// FindByIDs retrieves the validators with the given ids, in request order.
func (s *ValidatorStore) FindByIDs(_ context.Context, ids []string) ([]*domain.ValidatorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ValidatorRecord, 0, len(ids))
	for _, id := range ids {
		if v, exists := s.data[id]; exists {
			valCopy := *v
			result = append(result, &valCopy)
		}
	}
	return result, nil
}

var _ storage.ValidatorStore = (*ValidatorStore)(nil)
