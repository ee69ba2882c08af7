// Package validators assembles the composite validator records of a chain
// from its nomination, validator, unclaimed-era and slash stores.
package validators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/normalization"
	"validator-explorer/internal/storage"
)

// EraReader reads the cached active era of a chain. Zero means unset.
type EraReader interface {
	Get(ctx context.Context, chain string) (uint32, error)
}

// MemberSource provides the stash set of the curated validator program.
type MemberSource interface {
	ProgramMembers(ctx context.Context, chain string) (map[string]struct{}, error)
}

// ListOptions selects one page of an era's validators.
type ListOptions struct {
	Era  uint32
	Page int
	Size int

	// Apy bounds the nomination apy. Nil is unbounded.
	Apy *storage.Range
	// Commission bounds the commission as a 0-1 fraction. Records store a
	// percentage, so the bounds are scaled by 100 before matching.
	Commission *storage.Range

	RequireVerified    bool
	OnlyProgramMembers bool
}

// Engine runs the validator joins of one chain.
type Engine struct {
	chain   string
	stores  *storage.Stores
	norm    *normalization.Normalizer
	eras    EraReader
	members MemberSource
	log     *logrus.Entry
}

// Options for creating Engine.
type Options struct {
	Chain   string
	Stores  *storage.Stores
	Eras    EraReader    // optional; CurrentEra falls back to chain info
	Members MemberSource // required only for OnlyProgramMembers
	Log     *logrus.Entry
}

// NewEngine creates a new Engine.
func NewEngine(opts Options) *Engine {
	log := logging.OrDefault(opts.Log).WithField("chain", opts.Chain)
	return &Engine{
		chain:   opts.Chain,
		stores:  opts.Stores,
		norm:    normalization.NewNormalizer(opts.Chain, log),
		eras:    opts.Eras,
		members: opts.Members,
		log:     log,
	}
}

// Chain returns the chain alias the engine serves.
func (e *Engine) Chain() string {
	return e.chain
}

// ListByEra returns one page of the era's validators matching opts, in
// store-native order. An era without rows yields an empty list; retrying an
// older era is left to the caller.
//
// With RequireVerified, unverified validators are dropped before paging so
// the page counts only verified rows. OnlyProgramMembers is applied to the
// page after it is fetched.
func (e *Engine) ListByEra(ctx context.Context, opts ListOptions) ([]domain.ValidatorNominationInfo, error) {
	if opts.Page < 0 || opts.Size <= 0 || opts.Page > math.MaxInt/opts.Size {
		return nil, fmt.Errorf("%w: page %d size %d", storage.ErrInvalidInput, opts.Page, opts.Size)
	}

	filter := storage.NominationFilter{Era: opts.Era, Apy: opts.Apy}
	if opts.Commission != nil {
		filter.Commission = &storage.Range{Min: opts.Commission.Min * 100, Max: opts.Commission.Max * 100}
	}
	skip := opts.Page * opts.Size

	var (
		recs []*domain.NominationRecord
		err  error
	)
	if opts.RequireVerified {
		recs, err = e.stores.Nominations.FindVerifiedByEra(ctx, filter, skip, opts.Size)
	} else {
		recs, err = e.stores.Nominations.FindByEra(ctx, filter, skip, opts.Size)
	}
	if err != nil {
		return nil, fmt.Errorf("list era %d: %w", opts.Era, err)
	}

	out, err := e.join(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("join era %d: %w", opts.Era, err)
	}

	if opts.OnlyProgramMembers {
		out, err = e.keepMembers(ctx, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InfoByStashes returns the era records of the given validators with every
// nominator expanded to its balance.
func (e *Engine) InfoByStashes(ctx context.Context, stashes []string, era uint32) ([]domain.ValidatorNominationInfo, error) {
	if len(stashes) == 0 {
		return []domain.ValidatorNominationInfo{}, nil
	}

	recs, err := e.stores.Nominations.FindByValidators(ctx, era, stashes, true)
	if err != nil {
		return nil, fmt.Errorf("find era %d records: %w", era, err)
	}
	out, err := e.join(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("join era %d: %w", era, err)
	}
	return out, nil
}

// History returns a validator joined with every era it was nominated in.
// Only the most recent era carries nominator detail. Returns ErrNotFound
// when the validator or its nominations are missing.
func (e *Engine) History(ctx context.Context, stash string) (*domain.ValidatorHistory, error) {
	v, err := e.stores.Validators.GetByID(ctx, stash)
	if err != nil {
		return nil, fmt.Errorf("get validator %s: %w", stash, err)
	}

	var (
		records []*domain.NominationRecord
		latest  *domain.NominationRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = e.stores.Nominations.FindByValidator(gctx, stash)
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = e.stores.Nominations.LatestByValidator(gctx, stash)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("history of %s: %w", stash, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("history of %s: %w", stash, storage.ErrNotFound)
	}

	h := e.norm.History(v, records, latest)
	return &h, nil
}

// UnclaimedEras returns the eras a validator has not claimed, or an empty
// list when none are tracked.
func (e *Engine) UnclaimedEras(ctx context.Context, stash string) ([]int32, error) {
	info, err := e.stores.UnclaimedEras.GetByValidator(ctx, stash)
	if errors.Is(err, storage.ErrNotFound) {
		return []int32{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unclaimed eras of %s: %w", stash, err)
	}
	if info.Eras == nil {
		return []int32{}, nil
	}
	return info.Eras, nil
}

// Slashes returns every slash of one validator.
func (e *Engine) Slashes(ctx context.Context, stash string) ([]domain.ValidatorSlash, error) {
	return e.SlashesOf(ctx, []string{stash})
}

// SlashesOf returns every slash of the given validators.
func (e *Engine) SlashesOf(ctx context.Context, validators []string) ([]domain.ValidatorSlash, error) {
	if len(validators) == 0 {
		return []domain.ValidatorSlash{}, nil
	}
	slashes, err := e.stores.Slashes.FindByValidators(ctx, validators)
	if err != nil {
		return nil, fmt.Errorf("find slashes: %w", err)
	}
	return normalization.Slashes(slashes), nil
}

// CurrentEra returns the active era. The poller's slot is preferred; an
// unset or unreadable slot falls back to a live chain info read.
func (e *Engine) CurrentEra(ctx context.Context) (uint32, error) {
	if e.eras != nil {
		era, err := e.eras.Get(ctx, e.chain)
		if err == nil && era != 0 {
			return era, nil
		}
		if err != nil {
			e.log.WithError(err).Debug("era slot unreadable, reading chain info")
		}
	}

	info, err := e.stores.ChainInfo.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("get chain info: %w", err)
	}
	return info.ActiveEra, nil
}

// join attaches validator metadata, unclaimed eras and slashes to recs.
func (e *Engine) join(ctx context.Context, recs []*domain.NominationRecord) ([]domain.ValidatorNominationInfo, error) {
	if len(recs) == 0 {
		return []domain.ValidatorNominationInfo{}, nil
	}

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.Validator)
	}

	var (
		validators map[string]*domain.ValidatorRecord
		unclaimed  map[string]*domain.UnclaimedEraInfo
		slashes    map[string][]*domain.ValidatorSlash
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vals, err := e.stores.Validators.FindByIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("find validators: %w", err)
		}
		validators = indexValidators(vals)
		return nil
	})
	g.Go(func() error {
		infos, err := e.stores.UnclaimedEras.FindByValidators(gctx, ids)
		if err != nil {
			return fmt.Errorf("find unclaimed eras: %w", err)
		}
		unclaimed = make(map[string]*domain.UnclaimedEraInfo, len(infos))
		for _, u := range infos {
			if _, seen := unclaimed[u.Validator]; !seen {
				unclaimed[u.Validator] = u
			}
		}
		return nil
	})
	g.Go(func() error {
		list, err := e.stores.Slashes.FindByValidators(gctx, ids)
		if err != nil {
			return fmt.Errorf("find slashes: %w", err)
		}
		slashes = make(map[string][]*domain.ValidatorSlash)
		for _, s := range list {
			slashes[s.Address] = append(slashes[s.Address], s)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.ValidatorNominationInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, e.norm.ValidatorInfo(normalization.Joined{
			Nomination: r,
			Validator:  validators[r.Validator],
			Unclaimed:  unclaimed[r.Validator],
			Slashes:    slashes[r.Validator],
		}))
	}
	return out, nil
}

func (e *Engine) keepMembers(ctx context.Context, in []domain.ValidatorNominationInfo) ([]domain.ValidatorNominationInfo, error) {
	if e.members == nil {
		return nil, fmt.Errorf("%w: program member list not configured", storage.ErrUnavailable)
	}
	members, err := e.members.ProgramMembers(ctx, e.chain)
	if err != nil {
		return nil, fmt.Errorf("load program members: %w", err)
	}

	out := make([]domain.ValidatorNominationInfo, 0, len(in))
	for _, v := range in {
		if _, ok := members[v.ID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func indexValidators(vals []*domain.ValidatorRecord) map[string]*domain.ValidatorRecord {
	byID := make(map[string]*domain.ValidatorRecord, len(vals))
	for _, v := range vals {
		byID[v.ID] = v
	}
	return byID
}
