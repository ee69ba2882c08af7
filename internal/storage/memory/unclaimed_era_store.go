package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// UnclaimedEraStore is an in-memory implementation of storage.UnclaimedEraStore.
type UnclaimedEraStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UnclaimedEraInfo // keyed by validator
}

// NewUnclaimedEraStore creates a new in-memory unclaimed era store.
func NewUnclaimedEraStore() *UnclaimedEraStore {
	return &UnclaimedEraStore{
		data: make(map[string]*domain.UnclaimedEraInfo),
	}
}

// Put inserts or replaces the unclaimed eras of a validator.
func (s *UnclaimedEraStore) Put(_ context.Context, u *domain.UnclaimedEraInfo) error {
	if u == nil || u.Validator == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[u.Validator] = &domain.UnclaimedEraInfo{
		Validator: u.Validator,
		Eras:      append([]int32(nil), u.Eras...),
	}
	return nil
}

// GetByValidator retrieves the unclaimed eras of a validator.
func (s *UnclaimedEraStore) GetByValidator(_ context.Context, validator string) (*domain.UnclaimedEraInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[validator]
	if !exists {
		return nil, storage.ErrNotFound
	}

	infoCopy := *u
	return &infoCopy, nil
}

// FindByValidators retrieves the unclaimed eras of several validators.
func (s *UnclaimedEraStore) FindByValidators(_ context.Context, validators []string) ([]*domain.UnclaimedEraInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UnclaimedEraInfo
	for _, v := range validators {
		if u, exists := s.data[v]; exists {
			infoCopy := *u
			result = append(result, &infoCopy)
		}
	}
	return result, nil
}

var _ storage.UnclaimedEraStore = (*UnclaimedEraStore)(nil)
