package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

// PriceStore implements storage.PriceStore on the coin_prices table.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PostgreSQL price store.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// GetByDay retrieves the price recorded for a UTC day.
// Returns ErrNotFound if the day has no row.
func (s *PriceStore) GetByDay(ctx context.Context, day int64) (_ *domain.CoinPrice, err error) {
	start := time.Now()
	defer func() { observe("price.get_by_day", start, err) }()

	query := `SELECT day, price FROM coin_prices WHERE day = $1`

	var p domain.CoinPrice
	if err := s.pool.QueryRow(ctx, query, day).Scan(&p.TimestampDay, &p.Price); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get price of day %d: %w", day, translate(err))
	}
	return &p, nil
}

// Upsert records the price of a day, replacing the previous value.
func (s *PriceStore) Upsert(ctx context.Context, p *domain.CoinPrice) (err error) {
	if p == nil {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observe("price.upsert", start, err) }()

	query := `
		INSERT INTO coin_prices (day, price)
		VALUES ($1, $2)
		ON CONFLICT (day) DO UPDATE SET price = EXCLUDED.price, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, p.TimestampDay, p.Price); err != nil {
		err = translate(err)
		if !errors.Is(err, storage.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", storage.ErrWriteFailed, err)
		}
		return fmt.Errorf("upsert price of day %d: %w", p.TimestampDay, err)
	}
	return nil
}

func observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)
