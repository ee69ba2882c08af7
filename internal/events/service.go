// Package events answers era-range queries over the staking event
// collections of one chain.
package events

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/storage"
)

// Service queries staking events of one chain.
type Service struct {
	chain   string
	events  storage.EventStore
	slashes storage.SlashStore
	log     *logrus.Entry
}

// Options for creating Service.
type Options struct {
	Chain   string
	Events  storage.EventStore
	Slashes storage.SlashStore
	Log     *logrus.Entry
}

// NewService creates a new Service.
func NewService(opts Options) *Service {
	return &Service{
		chain:   opts.Chain,
		events:  opts.Events,
		slashes: opts.Slashes,
		log:     logging.OrDefault(opts.Log).WithField("chain", opts.Chain),
	}
}

// Range is an inclusive era range.
type Range struct {
	From uint32
	To   uint32
}

// Validate rejects inverted ranges.
func (r Range) Validate() error {
	if r.From > r.To {
		return fmt.Errorf("era range %d..%d: %w", r.From, r.To, storage.ErrInvalidInput)
	}
	return nil
}

// CommissionChanges returns the commission changes of validators in r.
func (s *Service) CommissionChanges(ctx context.Context, validators []string, r Range) ([]domain.CommissionChange, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	found, err := s.events.Commissions(ctx, validators, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("find commission changes: %w", err)
	}
	return values(found), nil
}

// StalePayouts returns the stale payout events of validators in r.
func (s *Service) StalePayouts(ctx context.Context, validators []string, r Range) ([]domain.StalePayoutEvent, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	found, err := s.events.StalePayouts(ctx, validators, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("find stale payouts: %w", err)
	}
	return values(found), nil
}

// InactiveEras returns the eras in r in which stash was inactive.
func (s *Service) InactiveEras(ctx context.Context, stash string, r Range) ([]uint32, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	eras, err := s.events.InactiveEras(ctx, stash, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("find inactive eras: %w", err)
	}
	if eras == nil {
		eras = []uint32{}
	}
	return eras, nil
}

// UserEvents resolves the user event mappings of stash in r restricted to
// types (every type when empty). Each event kind is resolved by its own
// query; the queries run concurrently.
func (s *Service) UserEvents(ctx context.Context, stash string, r Range, types []domain.EventType) (domain.StakingEvents, error) {
	out := domain.NewStakingEvents()
	if err := r.Validate(); err != nil {
		return out, err
	}
	if len(types) == 0 {
		types = domain.AllEventTypes
	}
	for _, t := range types {
		if !t.Valid() {
			return out, fmt.Errorf("event type %d: %w", t, storage.ErrInvalidInput)
		}
	}

	mappings, err := s.events.Mappings(ctx, stash, r.From, r.To, types)
	if err != nil {
		return out, fmt.Errorf("find event mappings: %w", err)
	}

	ids := make(map[domain.EventType][]string)
	for _, m := range mappings {
		ids[m.Type] = append(ids[m.Type], m.Mapping)
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(ids[domain.EventPayout]) > 0 {
		g.Go(func() error {
			found, err := s.events.PayoutsByIDs(gctx, ids[domain.EventPayout])
			if err != nil {
				return fmt.Errorf("resolve payouts: %w", err)
			}
			out.Payouts = values(found)
			return nil
		})
	}
	if len(ids[domain.EventCommission]) > 0 {
		g.Go(func() error {
			found, err := s.events.CommissionsByIDs(gctx, ids[domain.EventCommission])
			if err != nil {
				return fmt.Errorf("resolve commissions: %w", err)
			}
			out.Commissions = values(found)
			return nil
		})
	}
	if len(ids[domain.EventKick]) > 0 {
		g.Go(func() error {
			found, err := s.events.KicksByIDs(gctx, ids[domain.EventKick])
			if err != nil {
				return fmt.Errorf("resolve kicks: %w", err)
			}
			out.Kicks = values(found)
			return nil
		})
	}
	if len(ids[domain.EventChill]) > 0 {
		g.Go(func() error {
			found, err := s.events.ChillsByIDs(gctx, ids[domain.EventChill])
			if err != nil {
				return fmt.Errorf("resolve chills: %w", err)
			}
			out.Chills = values(found)
			return nil
		})
	}
	if len(ids[domain.EventInactive]) > 0 {
		g.Go(func() error {
			found, err := s.events.InactiveByIDs(gctx, ids[domain.EventInactive])
			if err != nil {
				return fmt.Errorf("resolve inactive events: %w", err)
			}
			eras := make([]uint32, 0, len(found))
			for _, e := range found {
				eras = append(eras, e.Era)
			}
			out.Inactive = eras
			return nil
		})
	}
	if len(ids[domain.EventStalePayout]) > 0 {
		g.Go(func() error {
			found, err := s.events.StalePayoutsByIDs(gctx, ids[domain.EventStalePayout])
			if err != nil {
				return fmt.Errorf("resolve stale payouts: %w", err)
			}
			out.StalePayouts = values(found)
			return nil
		})
	}
	if len(ids[domain.EventOverSubscribe]) > 0 {
		g.Go(func() error {
			found, err := s.events.OverSubscribesByIDs(gctx, ids[domain.EventOverSubscribe])
			if err != nil {
				return fmt.Errorf("resolve over-subscribes: %w", err)
			}
			out.OverSubscribes = values(found)
			return nil
		})
	}
	if s.slashes != nil {
		g.Go(func() error {
			found, err := s.slashes.FindByValidators(gctx, []string{stash})
			if err != nil {
				return fmt.Errorf("find slashes: %w", err)
			}
			slashes := make([]domain.ValidatorSlash, 0, len(found))
			for _, sl := range found {
				if sl.Era >= r.From && sl.Era <= r.To {
					slashes = append(slashes, *sl)
				}
			}
			out.Slashes = slashes
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.NewStakingEvents(), err
	}

	s.log.WithFields(logrus.Fields{
		"stash":    stash,
		"mappings": len(mappings),
	}).Debug("resolved user events")
	return out, nil
}

// values dereferences found records into a non-nil slice.
func values[T any](found []*T) []T {
	out := make([]T, 0, len(found))
	for _, v := range found {
		out = append(out, *v)
	}
	return out
}
