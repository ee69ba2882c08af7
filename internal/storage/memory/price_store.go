package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu   sync.RWMutex
	data map[int64]float64 // keyed by UTC-midnight unix seconds
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{
		data: make(map[int64]float64),
	}
}

// GetByDay retrieves the price of a day. Returns ErrNotFound if not exists.
func (s *PriceStore) GetByDay(_ context.Context, day int64) (*domain.CoinPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, exists := s.data[day]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &domain.CoinPrice{TimestampDay: day, Price: price}, nil
}

// Upsert records the price of a day.
func (s *PriceStore) Upsert(_ context.Context, p *domain.CoinPrice) error {
	if p == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.TimestampDay] = p.Price
	return nil
}

var _ storage.PriceStore = (*PriceStore)(nil)
