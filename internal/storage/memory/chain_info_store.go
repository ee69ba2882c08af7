package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// ChainInfoStore is an in-memory implementation of storage.ChainInfoStore.
type ChainInfoStore struct {
	mu   sync.RWMutex
	info *domain.ChainInfo
}

// NewChainInfoStore creates a new in-memory chain info store.
func NewChainInfoStore() *ChainInfoStore {
	return &ChainInfoStore{}
}

// Set replaces the chain info.
func (s *ChainInfoStore) Set(_ context.Context, info domain.ChainInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = &info
}

// Get retrieves the chain info. Returns ErrNotFound if never set.
func (s *ChainInfoStore) Get(_ context.Context) (*domain.ChainInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil {
		return nil, storage.ErrNotFound
	}
	infoCopy := *s.info
	return &infoCopy, nil
}

var _ storage.ChainInfoStore = (*ChainInfoStore)(nil)
