package memory

import (
	"context"
	"errors"
	"testing"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

func seedNominations(t *testing.T, s *NominationStore, recs ...*domain.NominationRecord) {
	t.Helper()
	for _, r := range recs {
		if err := s.Insert(context.Background(), r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestNominationStore_DuplicateKey(t *testing.T) {
	store := NewNominationStore(nil, nil)
	ctx := context.Background()

	rec := &domain.NominationRecord{Era: 10, Validator: "v1"}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, rec)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Same validator in another era is a different key
	if err := store.Insert(ctx, &domain.NominationRecord{Era: 11, Validator: "v1"}); err != nil {
		t.Errorf("Insert in other era failed: %v", err)
	}
}

func TestNominationStore_FindByEraFiltersAndPages(t *testing.T) {
	store := NewNominationStore(nil, nil)
	ctx := context.Background()

	seedNominations(t, store,
		&domain.NominationRecord{Era: 10, Validator: "v1", Apy: 0.10, Commission: 5},
		&domain.NominationRecord{Era: 10, Validator: "v2", Apy: 0.50, Commission: 5},
		&domain.NominationRecord{Era: 10, Validator: "v3", Apy: 0.12, Commission: 50},
		&domain.NominationRecord{Era: 10, Validator: "v4", Apy: 0.13, Commission: 1},
		&domain.NominationRecord{Era: 9, Validator: "v5", Apy: 0.10, Commission: 1},
	)

	f := storage.NominationFilter{
		Era:        10,
		Apy:        &storage.Range{Min: 0, Max: 0.2},
		Commission: &storage.Range{Min: 0, Max: 10},
	}

	all, err := store.FindByEra(ctx, f, 0, 0)
	if err != nil {
		t.Fatalf("FindByEra failed: %v", err)
	}
	if len(all) != 2 || all[0].Validator != "v1" || all[1].Validator != "v4" {
		t.Fatalf("Unexpected filter result: %+v", all)
	}

	page, err := store.FindByEra(ctx, f, 1, 1)
	if err != nil {
		t.Fatalf("FindByEra failed: %v", err)
	}
	if len(page) != 1 || page[0].Validator != "v4" {
		t.Errorf("Expected second page to hold v4, got %+v", page)
	}
}

func TestNominationStore_FindVerifiedByEraPagesVerifiedOnly(t *testing.T) {
	validators := NewValidatorStore()
	store := NewNominationStore(nil, validators)
	ctx := context.Background()

	for _, v := range []*domain.ValidatorRecord{
		{ID: "v1", Identity: &domain.Identity{IsVerified: true}},
		{ID: "v2", Identity: &domain.Identity{IsVerified: false}},
		{ID: "v3"},
		{ID: "v4", Identity: &domain.Identity{IsVerified: true}},
		{ID: "v5", Identity: &domain.Identity{IsVerified: true}},
	} {
		if err := validators.Put(ctx, v); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	seedNominations(t, store,
		&domain.NominationRecord{Era: 10, Validator: "v1"},
		&domain.NominationRecord{Era: 10, Validator: "v2"},
		&domain.NominationRecord{Era: 10, Validator: "v3"},
		&domain.NominationRecord{Era: 10, Validator: "v4"},
		&domain.NominationRecord{Era: 10, Validator: "v6"},
		&domain.NominationRecord{Era: 10, Validator: "v5"},
		&domain.NominationRecord{Era: 9, Validator: "v1"},
	)
	f := storage.NominationFilter{Era: 10}

	all, err := store.FindVerifiedByEra(ctx, f, 0, 0)
	if err != nil {
		t.Fatalf("FindVerifiedByEra failed: %v", err)
	}
	if len(all) != 3 || all[0].Validator != "v1" || all[1].Validator != "v4" || all[2].Validator != "v5" {
		t.Fatalf("Unexpected verified records: %+v", all)
	}

	page, err := store.FindVerifiedByEra(ctx, f, 1, 1)
	if err != nil {
		t.Fatalf("FindVerifiedByEra failed: %v", err)
	}
	if len(page) != 1 || page[0].Validator != "v4" {
		t.Errorf("Expected second verified page to hold v4, got %+v", page)
	}

	none, err := NewNominationStore(nil, nil).FindVerifiedByEra(ctx, f, 0, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("Expected no records without validators, got %v %v", none, err)
	}
}

func TestNominationStore_ExpandAttachesBalances(t *testing.T) {
	nominators := NewNominatorStore()
	store := NewNominationStore(nominators, nil)
	ctx := context.Background()

	if err := nominators.Put(ctx, &domain.NominatorRecord{
		Address: "n1",
		Balance: domain.Balance{LockedBalance: domain.NewU128(7), FreeBalance: domain.NewU128(9)},
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	seedNominations(t, store,
		&domain.NominationRecord{
			Era: 10, Validator: "v1",
			Nominators: []domain.RawNominator{{Address: "n1", Legacy: true}, {Address: "n2", Legacy: true}},
		},
		&domain.NominationRecord{Era: 12, Validator: "v1"},
	)

	recs, err := store.FindByValidators(ctx, 10, []string{"v1"}, true)
	if err != nil {
		t.Fatalf("FindByValidators failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	n := recs[0].Nominators
	if n[0].Balance == nil || n[0].Balance.FreeBalance.String() != "0x09" {
		t.Errorf("Expected n1 balance to be attached, got %+v", n[0])
	}
	if n[1].Balance != nil {
		t.Errorf("Expected unknown nominator to keep address only, got %+v", n[1])
	}

	// Stored record is not mutated by expansion
	plain, _ := store.FindByValidators(ctx, 10, []string{"v1"}, false)
	if plain[0].Nominators[0].Balance != nil {
		t.Error("Expansion leaked into stored record")
	}
}

func TestNominationStore_HistoryAndLatest(t *testing.T) {
	store := NewNominationStore(NewNominatorStore(), nil)
	ctx := context.Background()

	seedNominations(t, store,
		&domain.NominationRecord{Era: 12, Validator: "v1"},
		&domain.NominationRecord{Era: 10, Validator: "v1"},
		&domain.NominationRecord{Era: 11, Validator: "v2"},
	)

	history, err := store.FindByValidator(ctx, "v1")
	if err != nil {
		t.Fatalf("FindByValidator failed: %v", err)
	}
	if len(history) != 2 || history[0].Era != 10 || history[1].Era != 12 {
		t.Errorf("Expected eras [10 12], got %+v", history)
	}

	latest, err := store.LatestByValidator(ctx, "v1")
	if err != nil {
		t.Fatalf("LatestByValidator failed: %v", err)
	}
	if latest.Era != 12 {
		t.Errorf("Expected latest era 12, got %d", latest.Era)
	}

	_, err = store.LatestByValidator(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
