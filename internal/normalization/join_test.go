package normalization

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
)

func nomination(era uint32, validator string, nominators ...domain.RawNominator) *domain.NominationRecord {
	return &domain.NominationRecord{
		Era:        era,
		Validator:  validator,
		Commission: 3,
		Apy:        0.12,
		Nominators: nominators,
	}
}

func TestNominators_ShapesMatch(t *testing.T) {
	bal := &domain.Balance{LockedBalance: domain.NewU128(5), FreeBalance: domain.NewU128(7)}
	got := Nominators([]domain.RawNominator{
		{Address: "n1", Legacy: true},
		{Address: "n1", Balance: bal},
	})

	if len(got) != 2 {
		t.Fatalf("Expected 2 nominators, got %d", len(got))
	}
	if got[0].Address != got[1].Address {
		t.Errorf("Addresses differ: %s vs %s", got[0].Address, got[1].Address)
	}
	if got[0].Balance != nil {
		t.Error("Bare address must not carry a balance")
	}
	if got[1].Balance == nil || got[1].Balance.FreeBalance.String() != "0x07" {
		t.Errorf("Expected balance to be kept, got %+v", got[1].Balance)
	}

	stripped := got[1]
	stripped.Balance = nil
	if !reflect.DeepEqual(got[0], stripped) {
		t.Errorf("Shapes differ beyond balance: %+v vs %+v", got[0], stripped)
	}
}

func TestValidatorInfo_Defaults(t *testing.T) {
	n := NewNormalizer("KSM", logging.Discard())

	info := n.ValidatorInfo(Joined{
		Nomination: nomination(10, "v1", domain.RawNominator{Address: "a", Legacy: true}),
	})

	if info.ID != "v1" {
		t.Errorf("Expected id v1, got %s", info.ID)
	}
	if info.Info.NominatorCount != len(info.Info.Nominators) {
		t.Errorf("nominatorCount %d != len(nominators) %d", info.Info.NominatorCount, len(info.Info.Nominators))
	}
	if info.Info.UnclaimedEras == nil || len(info.Info.UnclaimedEras) != 0 {
		t.Errorf("Expected empty unclaimed eras, got %v", info.Info.UnclaimedEras)
	}
	if info.Slashes == nil || len(info.Slashes) != 0 {
		t.Errorf("Expected empty slashes, got %v", info.Slashes)
	}
	if info.Blocked || info.AverageApy != 0 {
		t.Errorf("Expected blocked=false averageApy=0, got %v %v", info.Blocked, info.AverageApy)
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"total":"0x00"`, `"selfStake":"0x00"`, `"unclaimedEras":[]`, `"slashes":[]`, `"stakerPoints":[]`} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %s in %s", want, s)
		}
	}
}

func TestValidatorInfo_Joined(t *testing.T) {
	n := NewNormalizer("KSM", logging.Discard())
	apy := 0.2
	blocked := true
	total := domain.NewU128(1000)

	rec := nomination(10, "v1")
	rec.Total = &total

	info := n.ValidatorInfo(Joined{
		Nomination: rec,
		Validator: &domain.ValidatorRecord{
			ID:         "v1",
			Identity:   &domain.Identity{Display: "Alice", IsVerified: true},
			AverageApy: &apy,
			Blocked:    &blocked,
		},
		Unclaimed: &domain.UnclaimedEraInfo{Validator: "v1", Eras: []int32{10, 12}},
		Slashes:   []*domain.ValidatorSlash{{Address: "v1", Era: 9, Total: domain.NewU128(3)}},
	})

	if !reflect.DeepEqual(info.Info.UnclaimedEras, []int32{10, 12}) {
		t.Errorf("Expected unclaimed [10 12], got %v", info.Info.UnclaimedEras)
	}
	if len(info.Slashes) != 1 || info.Slashes[0].Others == nil {
		t.Errorf("Expected one slash with empty others, got %+v", info.Slashes)
	}
	if !info.Identity.IsVerified || info.AverageApy != 0.2 || !info.Blocked {
		t.Errorf("Validator metadata not applied: %+v", info)
	}
	if info.Info.Total.String() != "0x03e8" {
		t.Errorf("Expected total 0x03e8, got %s", info.Info.Total)
	}
}

func TestHistory_BackfillsLatest(t *testing.T) {
	n := NewNormalizer("DOT", logging.Discard())
	v := &domain.ValidatorRecord{ID: "v1"}
	records := []*domain.NominationRecord{
		nomination(10, "v1", domain.RawNominator{Address: "a", Legacy: true}),
		nomination(11, "v1", domain.RawNominator{Address: "a", Legacy: true}, domain.RawNominator{Address: "b", Legacy: true}),
	}
	latest := nomination(11, "v1",
		domain.RawNominator{Address: "a", Balance: &domain.Balance{}},
		domain.RawNominator{Address: "b"},
	)

	h := n.History(v, records, latest)
	if len(h.Info) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(h.Info))
	}
	if h.Info[0].Nominators != nil {
		t.Errorf("Older era must not carry nominators, got %v", h.Info[0].Nominators)
	}
	if len(h.Info[1].Nominators) != 2 || h.Info[1].Nominators[0].Balance == nil {
		t.Errorf("Latest era not backfilled: %+v", h.Info[1].Nominators)
	}
	if h.Info[1].NominatorCount != 2 {
		t.Errorf("Expected nominatorCount 2, got %d", h.Info[1].NominatorCount)
	}
}

func TestHistory_NoEraMatch(t *testing.T) {
	n := NewNormalizer("DOT", logging.Discard())
	h := n.History(&domain.ValidatorRecord{ID: "v1"},
		[]*domain.NominationRecord{nomination(10, "v1")},
		nomination(99, "v1", domain.RawNominator{Address: "a"}),
	)
	for _, e := range h.Info {
		if e.Nominators != nil {
			t.Errorf("Expected no nominators when eras differ, got %v", e.Nominators)
		}
	}
}
