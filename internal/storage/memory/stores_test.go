package memory

import (
	"context"
	"errors"
	"testing"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

func TestValidatorStore_PutAndFind(t *testing.T) {
	store := NewValidatorStore()
	ctx := context.Background()

	if err := store.Put(ctx, &domain.ValidatorRecord{ID: "v1"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, &domain.ValidatorRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	got, err := store.FindByIDs(ctx, []string{"v1", "v2"})
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "v1" {
		t.Errorf("Expected only v1, got %+v", got)
	}

	if _, err := store.GetByID(ctx, "v2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPriceStore_Upsert(t *testing.T) {
	store := NewPriceStore()
	ctx := context.Background()

	if _, err := store.GetByDay(ctx, 86400); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	_ = store.Upsert(ctx, &domain.CoinPrice{TimestampDay: 86400, Price: 1.5})
	_ = store.Upsert(ctx, &domain.CoinPrice{TimestampDay: 86400, Price: 2.5})

	p, err := store.GetByDay(ctx, 86400)
	if err != nil {
		t.Fatalf("GetByDay failed: %v", err)
	}
	if p.Price != 2.5 {
		t.Errorf("Expected last write to win, got %v", p.Price)
	}
}

func TestChainInfoStore_Get(t *testing.T) {
	store := NewChainInfoStore()
	ctx := context.Background()

	if _, err := store.Get(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	store.Set(ctx, domain.ChainInfo{ActiveEra: 1234})
	info, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if info.ActiveEra != 1234 {
		t.Errorf("ActiveEra mismatch: got %d, want 1234", info.ActiveEra)
	}
}

func TestEventStore_MappingsResolve(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	payoutID := store.AddPayout(ctx, domain.PayoutEvent{Era: 10, Amount: 1.5, Address: "s1"})
	kickID := store.AddKick(ctx, domain.KickEvent{Era: 11, Validator: "v1", Nominator: "s1"})

	for _, m := range []*domain.UserEventMapping{
		{Address: "s1", Era: 10, Type: domain.EventPayout, Mapping: payoutID},
		{Address: "s1", Era: 11, Type: domain.EventKick, Mapping: kickID},
		{Address: "s1", Era: 30, Type: domain.EventKick, Mapping: kickID},
		{Address: "s2", Era: 10, Type: domain.EventPayout, Mapping: payoutID},
	} {
		if err := store.AddMapping(ctx, m); err != nil {
			t.Fatalf("AddMapping failed: %v", err)
		}
	}

	maps, err := store.Mappings(ctx, "s1", 0, 20, []domain.EventType{domain.EventKick})
	if err != nil {
		t.Fatalf("Mappings failed: %v", err)
	}
	if len(maps) != 1 || maps[0].Mapping != kickID {
		t.Fatalf("Expected one kick mapping, got %+v", maps)
	}

	kicks, _ := store.KicksByIDs(ctx, []string{kickID, "unknown"})
	if len(kicks) != 1 || kicks[0].Validator != "v1" {
		t.Errorf("Unexpected kicks: %+v", kicks)
	}
}

func TestEventStore_RangeQueries(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	store.AddCommission(ctx, domain.CommissionChange{Address: "v1", Era: 5, CommissionFrom: 1, CommissionTo: 2})
	store.AddCommission(ctx, domain.CommissionChange{Address: "v1", Era: 50})
	store.AddCommission(ctx, domain.CommissionChange{Address: "v2", Era: 5})
	store.AddInactive(ctx, domain.InactiveEvent{Address: "s1", Era: 7})
	store.AddInactive(ctx, domain.InactiveEvent{Address: "s1", Era: 9})

	commissions, _ := store.Commissions(ctx, []string{"v1"}, 0, 10)
	if len(commissions) != 1 || commissions[0].CommissionTo != 2 {
		t.Errorf("Unexpected commissions: %+v", commissions)
	}

	eras, _ := store.InactiveEras(ctx, "s1", 8, 10)
	if len(eras) != 1 || eras[0] != 9 {
		t.Errorf("Expected inactive eras [9], got %v", eras)
	}
}

func TestActionStores(t *testing.T) {
	ctx := context.Background()
	stores := NewActionStores()

	action := &domain.NominationAction{Stash: "s1", Tag: "tag1", Validators: []string{"v1"}}
	if err := stores.Nominations.Insert(ctx, action); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := stores.Nominations.SetResult(ctx, "tag1", "0xabc", "ref"); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}
	if err := stores.Nominations.SetResult(ctx, "nope", "", ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	got, err := stores.Nominations.GetByStash(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByStash failed: %v", err)
	}
	if got.ExtrinsicHash != "0xabc" || got.RefKey != "ref" {
		t.Errorf("Result not recorded: %+v", got)
	}

	sub := &domain.NewsletterSubscriber{Email: "a@b.io", Timestamp: 1}
	if err := stores.Newsletter.Insert(ctx, sub); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := stores.Newsletter.Insert(ctx, sub); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if err := stores.RefKeys.Upsert(ctx, &domain.RefKeyRecord{Stash: "s1", RefKey: "k1"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := stores.RefKeys.Upsert(ctx, &domain.RefKeyRecord{Stash: "s1", RefKey: "k2"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, err := stores.RefKeys.GetByKey(ctx, "k1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected replaced key to be gone, got %v", err)
	}
	rec, err := stores.RefKeys.GetByKey(ctx, "k2")
	if err != nil || rec.Stash != "s1" {
		t.Errorf("GetByKey mismatch: %+v, %v", rec, err)
	}
}
