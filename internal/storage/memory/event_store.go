package memory

import (
	"context"
	"fmt"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
// Every event is assigned an object-id-like hex id on insert.
type EventStore struct {
	mu     sync.RWMutex
	nextID uint64

	mappings       []*domain.UserEventMapping
	payouts        map[string]*domain.PayoutEvent
	commissions    map[string]*domain.CommissionChange
	kicks          map[string]*domain.KickEvent
	chills         map[string]*domain.ChillEvent
	inactive       map[string]*domain.InactiveEvent
	stalePayouts   map[string]*domain.StalePayoutEvent
	overSubscribes map[string]*domain.OverSubscribeEvent

	// insertion order of ids per kind
	commissionOrder []string
	staleOrder      []string
	inactiveOrder   []string
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		payouts:        make(map[string]*domain.PayoutEvent),
		commissions:    make(map[string]*domain.CommissionChange),
		kicks:          make(map[string]*domain.KickEvent),
		chills:         make(map[string]*domain.ChillEvent),
		inactive:       make(map[string]*domain.InactiveEvent),
		stalePayouts:   make(map[string]*domain.StalePayoutEvent),
		overSubscribes: make(map[string]*domain.OverSubscribeEvent),
	}
}

func (s *EventStore) newID() string {
	s.nextID++
	return fmt.Sprintf("%024x", s.nextID)
}

// AddMapping appends a user event mapping.
func (s *EventStore) AddMapping(_ context.Context, m *domain.UserEventMapping) error {
	if m == nil || m.Address == "" || !m.Type.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mapCopy := *m
	s.mappings = append(s.mappings, &mapCopy)
	return nil
}

// AddPayout stores a payout event and returns its id.
func (s *EventStore) AddPayout(_ context.Context, e domain.PayoutEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.payouts[id] = &e
	return id
}

// AddCommission stores a commission change and returns its id.
func (s *EventStore) AddCommission(_ context.Context, e domain.CommissionChange) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.commissions[id] = &e
	s.commissionOrder = append(s.commissionOrder, id)
	return id
}

// AddKick stores a kick event and returns its id.
func (s *EventStore) AddKick(_ context.Context, e domain.KickEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.kicks[id] = &e
	return id
}

// AddChill stores a chill event and returns its id.
func (s *EventStore) AddChill(_ context.Context, e domain.ChillEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.chills[id] = &e
	return id
}

// AddInactive stores an inactive event and returns its id.
func (s *EventStore) AddInactive(_ context.Context, e domain.InactiveEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.inactive[id] = &e
	s.inactiveOrder = append(s.inactiveOrder, id)
	return id
}

// AddStalePayout stores a stale payout event and returns its id.
func (s *EventStore) AddStalePayout(_ context.Context, e domain.StalePayoutEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.stalePayouts[id] = &e
	s.staleOrder = append(s.staleOrder, id)
	return id
}

// AddOverSubscribe stores an over-subscribe event and returns its id.
func (s *EventStore) AddOverSubscribe(_ context.Context, e domain.OverSubscribeEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.overSubscribes[id] = &e
	return id
}

// Commissions retrieves commission changes of validators within [fromEra, toEra].
func (s *EventStore) Commissions(_ context.Context, validators []string, fromEra, toEra uint32) ([]*domain.CommissionChange, error) {
	want := toSet(validators)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CommissionChange
	for _, id := range s.commissionOrder {
		c := s.commissions[id]
		if _, ok := want[c.Address]; ok && c.Era >= fromEra && c.Era <= toEra {
			cCopy := *c
			result = append(result, &cCopy)
		}
	}
	return result, nil
}

// StalePayouts retrieves stale payout events of validators within [fromEra, toEra].
func (s *EventStore) StalePayouts(_ context.Context, validators []string, fromEra, toEra uint32) ([]*domain.StalePayoutEvent, error) {
	want := toSet(validators)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StalePayoutEvent
	for _, id := range s.staleOrder {
		e := s.stalePayouts[id]
		if _, ok := want[e.Address]; ok && e.Era >= fromEra && e.Era <= toEra {
			eCopy := *e
			result = append(result, &eCopy)
		}
	}
	return result, nil
}

// InactiveEras retrieves the eras within [fromEra, toEra] in which a stash was inactive.
func (s *EventStore) InactiveEras(_ context.Context, stash string, fromEra, toEra uint32) ([]uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var eras []uint32
	for _, id := range s.inactiveOrder {
		e := s.inactive[id]
		if e.Address == stash && e.Era >= fromEra && e.Era <= toEra {
			eras = append(eras, e.Era)
		}
	}
	return eras, nil
}

// Mappings retrieves the user event mappings of a stash.
func (s *EventStore) Mappings(_ context.Context, stash string, fromEra, toEra uint32, types []domain.EventType) ([]*domain.UserEventMapping, error) {
	wantTypes := make(map[domain.EventType]struct{}, len(types))
	for _, t := range types {
		wantTypes[t] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UserEventMapping
	for _, m := range s.mappings {
		if m.Address != stash || m.Era < fromEra || m.Era > toEra {
			continue
		}
		if _, ok := wantTypes[m.Type]; !ok {
			continue
		}
		mapCopy := *m
		result = append(result, &mapCopy)
	}
	return result, nil
}

// PayoutsByIDs resolves payout mappings.
func (s *EventStore) PayoutsByIDs(_ context.Context, ids []string) ([]*domain.PayoutEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.payouts, ids), nil
}

// CommissionsByIDs resolves commission mappings.
func (s *EventStore) CommissionsByIDs(_ context.Context, ids []string) ([]*domain.CommissionChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.commissions, ids), nil
}

// KicksByIDs resolves kick mappings.
func (s *EventStore) KicksByIDs(_ context.Context, ids []string) ([]*domain.KickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.kicks, ids), nil
}

// ChillsByIDs resolves chill mappings.
func (s *EventStore) ChillsByIDs(_ context.Context, ids []string) ([]*domain.ChillEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.chills, ids), nil
}

// InactiveByIDs resolves inactive mappings.
func (s *EventStore) InactiveByIDs(_ context.Context, ids []string) ([]*domain.InactiveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.inactive, ids), nil
}

// StalePayoutsByIDs resolves stale payout mappings.
func (s *EventStore) StalePayoutsByIDs(_ context.Context, ids []string) ([]*domain.StalePayoutEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.stalePayouts, ids), nil
}

// OverSubscribesByIDs resolves over-subscribe mappings.
func (s *EventStore) OverSubscribesByIDs(_ context.Context, ids []string) ([]*domain.OverSubscribeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolveIDs(s.overSubscribes, ids), nil
}

// resolveIDs returns copies of the values stored under ids, skipping unknown ids.
func resolveIDs[T any](data map[string]*T, ids []string) []*T {
	var result []*T
	for _, id := range ids {
		if v, ok := data[id]; ok {
			vCopy := *v
			result = append(result, &vCopy)
		}
	}
	return result
}

var _ storage.EventStore = (*EventStore)(nil)
