package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// NominationStore implements storage.NominationStore on the nomination collection.
type NominationStore struct {
	db *DB
}

// NewNominationStore creates a new NominationStore.
func NewNominationStore(db *DB) *NominationStore {
	return &NominationStore{db: db}
}

// Compile-time interface check.
var _ storage.NominationStore = (*NominationStore)(nil)

// expandedNomination is a nomination joined with its nominator documents.
type expandedNomination struct {
	domain.NominationRecord `bson:",inline"`
	NominatorDetail         []domain.NominatorRecord `bson:"nominatorDetail"`
}

func eraMatch(f storage.NominationFilter) bson.D {
	m := bson.D{{Key: "era", Value: f.Era}}
	if f.Apy != nil {
		m = append(m, bson.E{Key: "apy", Value: bson.D{{Key: "$gte", Value: f.Apy.Min}, {Key: "$lte", Value: f.Apy.Max}}})
	}
	if f.Commission != nil {
		m = append(m, bson.E{Key: "commission", Value: bson.D{{Key: "$gte", Value: f.Commission.Min}, {Key: "$lte", Value: f.Commission.Max}}})
	}
	return m
}

// nominatorLookup joins nominator documents by address.
var nominatorLookup = bson.D{{Key: "$lookup", Value: bson.D{
	{Key: "from", Value: CollNominator},
	{Key: "localField", Value: "nominators"},
	{Key: "foreignField", Value: "address"},
	{Key: "as", Value: "nominatorDetail"},
}}}

// FindByEra retrieves records matching the filter in store-native order.
func (s *NominationStore) FindByEra(ctx context.Context, f storage.NominationFilter, skip, limit int) ([]*domain.NominationRecord, error) {
	pipeline := bson.A{bson.D{{Key: "$match", Value: eraMatch(f)}}}
	if skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(skip)}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}

	var recs []*domain.NominationRecord
	if err := s.db.aggregateAll(ctx, CollNomination, "nomination.find_by_era", pipeline, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// FindVerifiedByEra joins each matching record with its validator document
// and pages over those whose identity is verified, in one aggregation.
func (s *NominationStore) FindVerifiedByEra(ctx context.Context, f storage.NominationFilter, skip, limit int) ([]*domain.NominationRecord, error) {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: eraMatch(f)}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CollValidator},
			{Key: "localField", Value: "validator"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "data"},
		}}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "data.identity.isVerified", Value: true}}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "data", Value: 0}}}},
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(skip)}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}

	var recs []*domain.NominationRecord
	if err := s.db.aggregateAll(ctx, CollNomination, "nomination.find_verified_by_era", pipeline, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// FindByValidators retrieves the records of the given validators in one era.
func (s *NominationStore) FindByValidators(ctx context.Context, era uint32, validators []string, expand bool) ([]*domain.NominationRecord, error) {
	if len(validators) == 0 {
		return nil, nil
	}

	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "era", Value: era},
			{Key: "validator", Value: bson.D{{Key: "$in", Value: validators}}},
		}}},
	}
	if !expand {
		var recs []*domain.NominationRecord
		if err := s.db.aggregateAll(ctx, CollNomination, "nomination.find_by_validators", pipeline, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}

	pipeline = append(pipeline, nominatorLookup)
	var rows []*expandedNomination
	if err := s.db.aggregateAll(ctx, CollNomination, "nomination.find_by_validators_expanded", pipeline, &rows); err != nil {
		return nil, err
	}

	recs := make([]*domain.NominationRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.merge())
	}
	return recs, nil
}

// FindByValidator retrieves every record of a validator, ordered by era ASC.
func (s *NominationStore) FindByValidator(ctx context.Context, validator string) ([]*domain.NominationRecord, error) {
	var recs []*domain.NominationRecord
	opts := options.Find().SetSort(bson.D{{Key: "era", Value: 1}})
	if err := s.db.findAll(ctx, CollNomination, "nomination.find_by_validator", bson.D{{Key: "validator", Value: validator}}, &recs, opts); err != nil {
		return nil, err
	}
	return recs, nil
}

// LatestByValidator retrieves the most recent record of a validator, expanded.
func (s *NominationStore) LatestByValidator(ctx context.Context, validator string) (*domain.NominationRecord, error) {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "validator", Value: validator}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "era", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 1}},
		nominatorLookup,
	}

	var rows []*expandedNomination
	if err := s.db.aggregateAll(ctx, CollNomination, "nomination.latest_by_validator", pipeline, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return rows[0].merge(), nil
}

// merge attaches looked-up balances to the nominator entries, keeping the
// stored order. Entries without a nominator document keep the address only.
func (e *expandedNomination) merge() *domain.NominationRecord {
	rec := e.NominationRecord
	if len(e.NominatorDetail) == 0 {
		return &rec
	}

	byAddr := make(map[string]domain.Balance, len(e.NominatorDetail))
	for _, n := range e.NominatorDetail {
		byAddr[n.Address] = n.Balance
	}
	nominators := make([]domain.RawNominator, len(rec.Nominators))
	for i, n := range rec.Nominators {
		nominators[i] = n
		if bal, ok := byAddr[n.Address]; ok && n.Balance == nil {
			b := bal
			nominators[i].Balance = &b
		}
	}
	rec.Nominators = nominators
	return &rec
}
