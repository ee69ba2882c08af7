package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// EventStore implements storage.EventStore over the event collections.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

func eraRange(from, to uint32) bson.D {
	return bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}
}

// idFilter matches documents by _id. Mappings carry hex ids; documents may be
// keyed by ObjectId or by the raw string, so both forms are matched.
func idFilter(ids []string) bson.D {
	in := make(bson.A, 0, 2*len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			in = append(in, oid)
		}
		in = append(in, id)
	}
	return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: in}}}}
}

// Commissions retrieves commission changes of validators within [fromEra, toEra].
func (s *EventStore) Commissions(ctx context.Context, validators []string, fromEra, toEra uint32) ([]*domain.CommissionChange, error) {
	filter := bson.D{
		{Key: "address", Value: bson.D{{Key: "$in", Value: validators}}},
		{Key: "era", Value: eraRange(fromEra, toEra)},
	}
	var out []*domain.CommissionChange
	if err := s.db.findAll(ctx, CollCommission, "commission.find", filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StalePayouts retrieves stale payout events of validators within [fromEra, toEra].
func (s *EventStore) StalePayouts(ctx context.Context, validators []string, fromEra, toEra uint32) ([]*domain.StalePayoutEvent, error) {
	filter := bson.D{
		{Key: "address", Value: bson.D{{Key: "$in", Value: validators}}},
		{Key: "era", Value: eraRange(fromEra, toEra)},
	}
	var out []*domain.StalePayoutEvent
	if err := s.db.findAll(ctx, CollStalePayouts, "stale_payouts.find", filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InactiveEras retrieves the eras within [fromEra, toEra] in which a stash was inactive.
func (s *EventStore) InactiveEras(ctx context.Context, stash string, fromEra, toEra uint32) ([]uint32, error) {
	filter := bson.D{
		{Key: "address", Value: stash},
		{Key: "era", Value: eraRange(fromEra, toEra)},
	}
	var rows []*domain.InactiveEvent
	if err := s.db.findAll(ctx, CollInactiveEvents, "inactive_events.find", filter, &rows); err != nil {
		return nil, err
	}
	eras := make([]uint32, 0, len(rows))
	for _, r := range rows {
		eras = append(eras, r.Era)
	}
	return eras, nil
}

// Mappings retrieves the user event mappings of a stash.
func (s *EventStore) Mappings(ctx context.Context, stash string, fromEra, toEra uint32, types []domain.EventType) ([]*domain.UserEventMapping, error) {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "address", Value: stash}},
			bson.D{{Key: "era", Value: eraRange(fromEra, toEra)}},
			bson.D{{Key: "type", Value: bson.D{{Key: "$in", Value: types}}}},
		}}}}},
	}
	var out []*domain.UserEventMapping
	if err := s.db.aggregateAll(ctx, CollUserEventMap, "user_event_mapping.find", pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PayoutsByIDs resolves payout mappings against stashInfo.
func (s *EventStore) PayoutsByIDs(ctx context.Context, ids []string) ([]*domain.PayoutEvent, error) {
	return findByIDs[domain.PayoutEvent](ctx, s.db, CollStashInfo, ids)
}

// CommissionsByIDs resolves commission mappings.
func (s *EventStore) CommissionsByIDs(ctx context.Context, ids []string) ([]*domain.CommissionChange, error) {
	return findByIDs[domain.CommissionChange](ctx, s.db, CollCommission, ids)
}

// KicksByIDs resolves kick mappings.
func (s *EventStore) KicksByIDs(ctx context.Context, ids []string) ([]*domain.KickEvent, error) {
	return findByIDs[domain.KickEvent](ctx, s.db, CollKickEvents, ids)
}

// ChillsByIDs resolves chill mappings.
func (s *EventStore) ChillsByIDs(ctx context.Context, ids []string) ([]*domain.ChillEvent, error) {
	return findByIDs[domain.ChillEvent](ctx, s.db, CollChillEvents, ids)
}

// InactiveByIDs resolves inactive mappings.
func (s *EventStore) InactiveByIDs(ctx context.Context, ids []string) ([]*domain.InactiveEvent, error) {
	return findByIDs[domain.InactiveEvent](ctx, s.db, CollInactiveEvents, ids)
}

// StalePayoutsByIDs resolves stale payout mappings.
func (s *EventStore) StalePayoutsByIDs(ctx context.Context, ids []string) ([]*domain.StalePayoutEvent, error) {
	return findByIDs[domain.StalePayoutEvent](ctx, s.db, CollStalePayouts, ids)
}

// OverSubscribesByIDs resolves over-subscribe mappings.
func (s *EventStore) OverSubscribesByIDs(ctx context.Context, ids []string) ([]*domain.OverSubscribeEvent, error) {
	return findByIDs[domain.OverSubscribeEvent](ctx, s.db, CollOverSubscribe, ids)
}

func findByIDs[T any](ctx context.Context, db *DB, coll string, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*T
	if err := db.findAll(ctx, coll, coll+".find_by_ids", idFilter(ids), &out); err != nil {
		return nil, err
	}
	return out, nil
}
