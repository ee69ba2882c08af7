package validators

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/storage"
	"validator-explorer/internal/storage/memory"
)

type fixture struct {
	chain  *memory.Chain
	engine *Engine
}

func newFixture(t *testing.T, eras EraReader, members MemberSource) *fixture {
	t.Helper()
	chain := memory.NewChain()
	return &fixture{
		chain: chain,
		engine: NewEngine(Options{
			Chain:   "KSM",
			Stores:  chain.Stores(),
			Eras:    eras,
			Members: members,
			Log:     logging.Discard(),
		}),
	}
}

func (f *fixture) addNomination(t *testing.T, era uint32, validator string, apy, commission float64, nominators ...string) {
	t.Helper()
	rec := &domain.NominationRecord{Era: era, Validator: validator, Apy: apy, Commission: commission}
	for _, n := range nominators {
		rec.Nominators = append(rec.Nominators, domain.RawNominator{Address: n, Legacy: true})
	}
	require.NoError(t, f.chain.Nominations.Insert(context.Background(), rec))
}

func (f *fixture) addValidator(t *testing.T, id string, verified bool) {
	t.Helper()
	require.NoError(t, f.chain.Validators.Put(context.Background(), &domain.ValidatorRecord{
		ID:       id,
		Identity: &domain.Identity{Display: id, IsVerified: verified},
	}))
}

func TestListByEra_DefaultsAndCounts(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.addValidator(t, "v1", true)
	f.addValidator(t, "v2", false)
	f.addNomination(t, 10, "v1", 0.1, 5, "a", "b")
	f.addNomination(t, 10, "v2", 0.1, 5)
	require.NoError(t, f.chain.UnclaimedEras.Put(ctx, &domain.UnclaimedEraInfo{Validator: "v1", Eras: []int32{10, 12}}))

	list, err := f.engine.ListByEra(ctx, ListOptions{Era: 10, Size: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)

	for _, v := range list {
		assert.Equal(t, len(v.Info.Nominators), v.Info.NominatorCount)
		assert.NotNil(t, v.Info.UnclaimedEras)
		assert.NotNil(t, v.Slashes)
	}
	assert.Equal(t, []int32{10, 12}, list[0].Info.UnclaimedEras)
	assert.Equal(t, []int32{}, list[1].Info.UnclaimedEras)
}

func TestListByEra_Pagination(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("v%02d", i)
		f.addValidator(t, id, true)
		f.addNomination(t, 7, id, 0.1, 5)
	}

	page0, err := f.engine.ListByEra(ctx, ListOptions{Era: 7, Page: 0, Size: 10})
	require.NoError(t, err)
	page1, err := f.engine.ListByEra(ctx, ListOptions{Era: 7, Page: 1, Size: 10})
	require.NoError(t, err)
	page2, err := f.engine.ListByEra(ctx, ListOptions{Era: 7, Page: 2, Size: 10})
	require.NoError(t, err)

	assert.Len(t, page0, 10)
	assert.Len(t, page1, 10)
	assert.Len(t, page2, 5)

	seen := make(map[string]bool)
	for _, v := range page0 {
		seen[v.ID] = true
	}
	for _, v := range page1 {
		assert.False(t, seen[v.ID], "page 1 overlaps page 0 at %s", v.ID)
	}
}

func TestListByEra_Filters(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.addValidator(t, "low", true)
	f.addValidator(t, "high", true)
	f.addValidator(t, "fee", true)
	f.addNomination(t, 3, "low", 0.05, 2)
	f.addNomination(t, 3, "high", 0.50, 2)
	f.addNomination(t, 3, "fee", 0.05, 90)

	list, err := f.engine.ListByEra(ctx, ListOptions{
		Era:        3,
		Size:       10,
		Apy:        &storage.Range{Min: 0, Max: 0.2},
		Commission: &storage.Range{Min: 0, Max: 0.1},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "low", list[0].ID)
}

func TestListByEra_RequireVerifiedPagesVerifiedOnly(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	// Interleave unverified validators so paging before filtering would differ.
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("v%d", i)
		f.addValidator(t, id, i%2 == 0)
		f.addNomination(t, 1, id, 0.1, 1)
	}
	f.addNomination(t, 1, "ghost", 0.1, 1)

	page0, err := f.engine.ListByEra(ctx, ListOptions{Era: 1, Size: 2, RequireVerified: true})
	require.NoError(t, err)
	require.Len(t, page0, 2)
	assert.Equal(t, "v0", page0[0].ID)
	assert.Equal(t, "v2", page0[1].ID)

	page1, err := f.engine.ListByEra(ctx, ListOptions{Era: 1, Page: 1, Size: 2, RequireVerified: true})
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, "v4", page1[0].ID)

	for _, v := range append(page0, page1...) {
		assert.True(t, v.Identity.IsVerified)
	}
}

func TestListByEra_EmptyEraNoRetry(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.addNomination(t, 9, "v1", 0.1, 1)

	list, err := f.engine.ListByEra(context.Background(), ListOptions{Era: 10, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestListByEra_InvalidPaging(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.addValidator(t, "v1", true)
	f.addNomination(t, 1, "v1", 0.1, 1)

	tests := []struct {
		name string
		opts ListOptions
	}{
		{"zero size", ListOptions{Era: 1, Size: 0}},
		{"negative page", ListOptions{Era: 1, Page: -1, Size: 10}},
		{"overflowing skip", ListOptions{Era: 1, Page: 3 << 61, Size: 4}},
		{"overflowing skip verified", ListOptions{Era: 1, Page: 3 << 61, Size: 4, RequireVerified: true}},
		{"max page", ListOptions{Era: 1, Page: math.MaxInt, Size: 2000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.ListByEra(ctx, tt.opts)
			assert.ErrorIs(t, err, storage.ErrInvalidInput)
		})
	}

	list, err := f.engine.ListByEra(ctx, ListOptions{Era: 1, Page: math.MaxInt / 4, Size: 4, RequireVerified: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

type staticMembers map[string]struct{}

func (m staticMembers) ProgramMembers(context.Context, string) (map[string]struct{}, error) {
	return m, nil
}

func TestListByEra_OnlyProgramMembers(t *testing.T) {
	f := newFixture(t, nil, staticMembers{"v2": {}})
	ctx := context.Background()
	f.addNomination(t, 1, "v1", 0.1, 1)
	f.addNomination(t, 1, "v2", 0.1, 1)

	list, err := f.engine.ListByEra(ctx, ListOptions{Era: 1, Size: 10, OnlyProgramMembers: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v2", list[0].ID)

	noMembers := newFixture(t, nil, nil)
	_, err = noMembers.engine.ListByEra(ctx, ListOptions{Era: 1, Size: 10, OnlyProgramMembers: true})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestInfoByStashes_ExpandsNominators(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.addValidator(t, "v1", true)
	f.addNomination(t, 5, "v1", 0.1, 1, "n1", "n2")
	f.addNomination(t, 5, "v2", 0.1, 1, "n1")
	require.NoError(t, f.chain.Nominators.Put(ctx, &domain.NominatorRecord{
		Address: "n1",
		Balance: domain.Balance{FreeBalance: domain.NewU128(9)},
	}))
	require.NoError(t, f.chain.Slashes.Insert(ctx, &domain.ValidatorSlash{Address: "v1", Era: 4}))

	list, err := f.engine.InfoByStashes(ctx, []string{"v1"}, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n := list[0].Info.Nominators
	require.Len(t, n, 2)
	require.NotNil(t, n[0].Balance)
	assert.Equal(t, "0x09", n[0].Balance.FreeBalance.String())
	assert.Nil(t, n[1].Balance)
	assert.Len(t, list[0].Slashes, 1)

	empty, err := f.engine.InfoByStashes(ctx, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.addValidator(t, "v1", true)
	f.addNomination(t, 11, "v1", 0.1, 1, "n1", "n2")
	f.addNomination(t, 10, "v1", 0.1, 1, "n1")

	h, err := f.engine.History(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, h.Info, 2)
	assert.Equal(t, uint32(10), h.Info[0].Era)
	assert.Nil(t, h.Info[0].Nominators)
	assert.Len(t, h.Info[1].Nominators, 2)

	_, err = f.engine.History(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	f.addValidator(t, "idle", false)
	_, err = f.engine.History(ctx, "idle")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUnclaimedErasAndSlashes(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	eras, err := f.engine.UnclaimedEras(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []int32{}, eras)

	require.NoError(t, f.chain.UnclaimedEras.Put(ctx, &domain.UnclaimedEraInfo{Validator: "v1", Eras: []int32{3}}))
	eras, err = f.engine.UnclaimedEras(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []int32{3}, eras)

	slashes, err := f.engine.Slashes(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ValidatorSlash{}, slashes)

	require.NoError(t, f.chain.Slashes.Insert(ctx, &domain.ValidatorSlash{Address: "v1", Era: 2}))
	require.NoError(t, f.chain.Slashes.Insert(ctx, &domain.ValidatorSlash{Address: "v2", Era: 2}))
	slashes, err = f.engine.SlashesOf(ctx, []string{"v1", "v2"})
	require.NoError(t, err)
	assert.Len(t, slashes, 2)
}

type fakeSlot struct {
	era   uint32
	err   error
	calls int
}

func (s *fakeSlot) Get(context.Context, string) (uint32, error) {
	s.calls++
	return s.era, s.err
}

func TestCurrentEra(t *testing.T) {
	ctx := context.Background()

	t.Run("slot populated", func(t *testing.T) {
		slot := &fakeSlot{era: 4000}
		f := newFixture(t, slot, nil)
		f.chain.ChainInfo.Set(ctx, domain.ChainInfo{ActiveEra: 1})

		era, err := f.engine.CurrentEra(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(4000), era)
	})

	t.Run("unset slot falls back to chain info", func(t *testing.T) {
		f := newFixture(t, &fakeSlot{}, nil)
		f.chain.ChainInfo.Set(ctx, domain.ChainInfo{ActiveEra: 1234})

		era, err := f.engine.CurrentEra(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(1234), era)
	})

	t.Run("slot error falls back", func(t *testing.T) {
		f := newFixture(t, &fakeSlot{err: errors.New("redis down")}, nil)
		f.chain.ChainInfo.Set(ctx, domain.ChainInfo{ActiveEra: 7})

		era, err := f.engine.CurrentEra(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), era)
	})

	t.Run("no chain info", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.engine.CurrentEra(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
