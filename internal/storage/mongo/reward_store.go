package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo/options"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// RewardStore implements storage.RewardStore on stashInfo.
type RewardStore struct {
	db *DB
}

// NewRewardStore creates a new RewardStore.
func NewRewardStore(db *DB) *RewardStore {
	return &RewardStore{db: db}
}

// ledgerRow tolerates non-integer eras written by older ingesters.
type ledgerRow struct {
	Stash     string        `bson:"stash"`
	Era       bson.RawValue `bson:"era"`
	Amount    float64       `bson:"amount"`
	Timestamp domain.Millis `bson:"timestamp"`
}

// FindByStash retrieves the ledger of a stash in store-native order.
// Entries whose era is not an integer are skipped.
func (s *RewardStore) FindByStash(ctx context.Context, stash string) ([]*domain.RewardLedgerEntry, error) {
	var rows []ledgerRow
	if err := s.db.findAll(ctx, CollStashInfo, "stash_info.find_by_stash", bson.D{{Key: "stash", Value: stash}}, &rows); err != nil {
		return nil, err
	}

	entries := make([]*domain.RewardLedgerEntry, 0, len(rows))
	for _, r := range rows {
		var era int32
		switch r.Era.Type {
		case bsontype.Int32:
			era = r.Era.Int32()
		case bsontype.Int64:
			era = int32(r.Era.Int64())
		default:
			continue
		}
		entries = append(entries, &domain.RewardLedgerEntry{
			Stash:     r.Stash,
			Era:       era,
			Amount:    r.Amount,
			Timestamp: r.Timestamp,
		})
	}
	return entries, nil
}

// PriceStore implements storage.PriceStore on the price collection.
type PriceStore struct {
	db *DB
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(db *DB) *PriceStore {
	return &PriceStore{db: db}
}

// GetByDay retrieves the price of a day. Returns ErrNotFound if not exists.
func (s *PriceStore) GetByDay(ctx context.Context, day int64) (*domain.CoinPrice, error) {
	var p domain.CoinPrice
	if err := s.db.findOne(ctx, CollPrice, "price.get_by_day", bson.D{{Key: "timestamp", Value: day}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert records the price of a day.
func (s *PriceStore) Upsert(ctx context.Context, p *domain.CoinPrice) (err error) {
	if p == nil {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { s.db.observe("price.upsert", start, err) }()

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err = s.db.coll(CollPrice).UpdateOne(ctx,
		bson.D{{Key: "timestamp", Value: p.TimestampDay}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "price", Value: p.Price}}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert price: %w", translateWrite(err))
	}
	return nil
}

// Compile-time interface checks.
var (
	_ storage.RewardStore = (*RewardStore)(nil)
	_ storage.PriceStore  = (*PriceStore)(nil)
)
