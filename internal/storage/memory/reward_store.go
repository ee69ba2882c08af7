package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// RewardStore is an in-memory implementation of storage.RewardStore.
type RewardStore struct {
	mu      sync.RWMutex
	entries []*domain.RewardLedgerEntry
}

// NewRewardStore creates a new in-memory reward store.
func NewRewardStore() *RewardStore {
	return &RewardStore{}
}

// Insert appends a ledger entry.
func (s *RewardStore) Insert(_ context.Context, e *domain.RewardLedgerEntry) error {
	if e == nil || e.Stash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *e
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// FindByStash retrieves the ledger of a stash in insertion order.
func (s *RewardStore) FindByStash(_ context.Context, stash string) ([]*domain.RewardLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RewardLedgerEntry
	for _, e := range s.entries {
		if e.Stash == stash {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}
	return result, nil
}

var _ storage.RewardStore = (*RewardStore)(nil)
