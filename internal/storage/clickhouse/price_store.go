package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

// PriceStore implements storage.PriceStore on a ReplacingMergeTree table.
// Upserts append a row; reads use FINAL to see the newest one per day.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new ClickHouse price store.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// GetByDay retrieves the price recorded for a UTC day.
func (s *PriceStore) GetByDay(ctx context.Context, day int64) (_ *domain.CoinPrice, err error) {
	start := time.Now()
	defer func() { observe("price.get_by_day", start, err) }()

	query := `SELECT day, price FROM coin_prices FINAL WHERE day = ? LIMIT 1`

	rows, err := s.conn.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("query price of day %d: %w", day, wrapErr(err))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate price rows: %w", wrapErr(err))
		}
		return nil, storage.ErrNotFound
	}

	var p domain.CoinPrice
	if err := rows.Scan(&p.TimestampDay, &p.Price); err != nil {
		return nil, fmt.Errorf("scan price row: %w", err)
	}
	return &p, nil
}

// Upsert appends a price row for the day.
func (s *PriceStore) Upsert(ctx context.Context, p *domain.CoinPrice) (err error) {
	if p == nil {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observe("price.upsert", start, err) }()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO coin_prices (day, price, updated_at)")
	if err != nil {
		return fmt.Errorf("prepare price batch: %w", wrapErr(err))
	}
	if err := batch.Append(p.TimestampDay, p.Price, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: append price: %v", storage.ErrWriteFailed, err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("%w: send price batch: %v", storage.ErrWriteFailed, wrapErr(err))
	}
	return nil
}

func wrapErr(err error) error {
	if isConnError(err) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return err
}

func observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("clickhouse", operation, time.Since(start).Seconds(), err)
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)
