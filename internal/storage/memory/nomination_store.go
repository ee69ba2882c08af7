package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// NominationStore is an in-memory implementation of storage.NominationStore.
// Records are returned in insertion order.
type NominationStore struct {
	mu         sync.RWMutex
	records    []*domain.NominationRecord
	keys       map[nominationKey]struct{}
	nominators storage.NominatorStore // used to expand nominator entries
	validators storage.ValidatorStore // used by FindVerifiedByEra
}

type nominationKey struct {
	era       uint32
	validator string
}

// NewNominationStore creates a new in-memory nomination store. nominators may
// be nil, in which case expanded queries leave balances unset. validators may
// be nil, in which case no record counts as verified.
func NewNominationStore(nominators storage.NominatorStore, validators storage.ValidatorStore) *NominationStore {
	return &NominationStore{
		keys:       make(map[nominationKey]struct{}),
		nominators: nominators,
		validators: validators,
	}
}

// Insert adds a record. Returns ErrDuplicateKey if (era, validator) exists.
func (s *NominationStore) Insert(_ context.Context, r *domain.NominationRecord) error {
	if r == nil || r.Validator == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := nominationKey{era: r.Era, validator: r.Validator}
	if _, exists := s.keys[key]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := cloneNomination(r)
	s.records = append(s.records, recCopy)
	s.keys[key] = struct{}{}
	return nil
}

// FindByEra retrieves records matching the filter in insertion order.
func (s *NominationStore) FindByEra(_ context.Context, f storage.NominationFilter, skip, limit int) ([]*domain.NominationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.NominationRecord
	matched := 0
	for _, r := range s.records {
		if !f.Match(r) {
			continue
		}
		matched++
		if matched <= skip {
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, cloneNomination(r))
	}
	return result, nil
}

// FindVerifiedByEra retrieves matching records whose validator identity is
// verified, in insertion order.
func (s *NominationStore) FindVerifiedByEra(ctx context.Context, f storage.NominationFilter, skip, limit int) ([]*domain.NominationRecord, error) {
	if s.validators == nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.NominationRecord
	matched := 0
	for _, r := range s.records {
		if !f.Match(r) {
			continue
		}
		v, err := s.validators.GetByID(ctx, r.Validator)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if v.Identity == nil || !v.Identity.IsVerified {
			continue
		}
		matched++
		if matched <= skip {
			continue
		}
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, cloneNomination(r))
	}
	return result, nil
}

// FindByValidators retrieves the records of the given validators in one era.
func (s *NominationStore) FindByValidators(ctx context.Context, era uint32, validators []string, expand bool) ([]*domain.NominationRecord, error) {
	want := toSet(validators)

	s.mu.RLock()
	var result []*domain.NominationRecord
	for _, r := range s.records {
		if r.Era != era {
			continue
		}
		if _, ok := want[r.Validator]; ok {
			result = append(result, cloneNomination(r))
		}
	}
	s.mu.RUnlock()

	if expand {
		for _, r := range result {
			if err := s.expand(ctx, r); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// FindByValidator retrieves every record of a validator, ordered by era ASC.
func (s *NominationStore) FindByValidator(_ context.Context, validator string) ([]*domain.NominationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.NominationRecord
	for _, r := range s.records {
		if r.Validator == validator {
			result = append(result, cloneNomination(r))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Era < result[j].Era
	})
	return result, nil
}

// LatestByValidator retrieves the most recent record of a validator, expanded.
func (s *NominationStore) LatestByValidator(ctx context.Context, validator string) (*domain.NominationRecord, error) {
	s.mu.RLock()
	var latest *domain.NominationRecord
	for _, r := range s.records {
		if r.Validator != validator {
			continue
		}
		if latest == nil || r.Era > latest.Era {
			latest = r
		}
	}
	if latest == nil {
		s.mu.RUnlock()
		return nil, storage.ErrNotFound
	}
	recCopy := cloneNomination(latest)
	s.mu.RUnlock()

	if err := s.expand(ctx, recCopy); err != nil {
		return nil, err
	}
	return recCopy, nil
}

// expand attaches nominator balances, matching the $lookup the document
// store performs. Unknown nominators keep their address only.
func (s *NominationStore) expand(ctx context.Context, r *domain.NominationRecord) error {
	if s.nominators == nil || len(r.Nominators) == 0 {
		return nil
	}

	addrs := make([]string, 0, len(r.Nominators))
	for _, n := range r.Nominators {
		addrs = append(addrs, n.Address)
	}
	found, err := s.nominators.FindByAddresses(ctx, addrs)
	if err != nil {
		return err
	}
	byAddr := make(map[string]*domain.NominatorRecord, len(found))
	for _, n := range found {
		byAddr[n.Address] = n
	}

	for i, n := range r.Nominators {
		if rec, ok := byAddr[n.Address]; ok {
			bal := rec.Balance
			r.Nominators[i] = domain.RawNominator{Address: n.Address, Balance: &bal}
		}
	}
	return nil
}

func cloneNomination(r *domain.NominationRecord) *domain.NominationRecord {
	recCopy := *r
	recCopy.Nominators = append([]domain.RawNominator(nil), r.Nominators...)
	recCopy.Exposure.Others = append([]domain.IndividualExposure(nil), r.Exposure.Others...)
	return &recCopy
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

var _ storage.NominationStore = (*NominationStore)(nil)
