package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// SlashStore is an in-memory implementation of storage.SlashStore.
type SlashStore struct {
	mu      sync.RWMutex
	slashes []*domain.ValidatorSlash
}

// NewSlashStore creates a new in-memory slash store.
func NewSlashStore() *SlashStore {
	return &SlashStore{}
}

// Insert appends a slash.
func (s *SlashStore) Insert(_ context.Context, sl *domain.ValidatorSlash) error {
	if sl == nil || sl.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slashCopy := *sl
	slashCopy.Others = append([]domain.SlashNominator(nil), sl.Others...)
	s.slashes = append(s.slashes, &slashCopy)
	return nil
}

// FindByValidators retrieves every slash of the given validators.
func (s *SlashStore) FindByValidators(_ context.Context, validators []string) ([]*domain.ValidatorSlash, error) {
	want := toSet(validators)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ValidatorSlash
	for _, sl := range s.slashes {
		if _, ok := want[sl.Address]; ok {
			slashCopy := *sl
			result = append(result, &slashCopy)
		}
	}
	return result, nil
}

var _ storage.SlashStore = (*SlashStore)(nil)
