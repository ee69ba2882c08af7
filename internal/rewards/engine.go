// Package rewards values a stash's reward ledger in fiat.
package rewards

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/pricecache"
	"validator-explorer/internal/storage"
)

// PriceSource resolves the price of a UTC day. Days without a price
// resolve to 0.
type PriceSource interface {
	Price(ctx context.Context, day int64) (float64, error)
}

// Engine values reward ledgers of one chain.
type Engine struct {
	rewards    storage.RewardStore
	nominators storage.NominatorStore
	prices     PriceSource
	log        *logrus.Entry
}

// Options for creating Engine.
type Options struct {
	Rewards    storage.RewardStore
	Nominators storage.NominatorStore
	Prices     PriceSource
	Log        *logrus.Entry
}

// NewEngine creates a new Engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		rewards:    opts.Rewards,
		nominators: opts.Nominators,
		prices:     opts.Prices,
		log:        logging.OrDefault(opts.Log),
	}
}

// StashRewards walks the stash's ledger in store order and values each
// entry at its day's price. The fiat total is recomputed on every call.
// A store failure aborts the whole valuation.
func (e *Engine) StashRewards(ctx context.Context, stash string) (*domain.StashRewards, error) {
	entries, err := e.rewards.FindByStash(ctx, stash)
	if err != nil {
		return nil, fmt.Errorf("find rewards of %s: %w", stash, err)
	}

	out := &domain.StashRewards{
		Stash:      stash,
		EraRewards: make([]domain.StashEraReward, 0, len(entries)),
	}
	for _, entry := range entries {
		ts := int64(entry.Timestamp)
		price, err := e.prices.Price(ctx, pricecache.DayOf(ts))
		if err != nil {
			return nil, fmt.Errorf("value rewards of %s: %w", stash, err)
		}

		total := price * entry.Amount
		out.EraRewards = append(out.EraRewards, domain.StashEraReward{
			Era:       entry.Era,
			Amount:    entry.Amount,
			Timestamp: ts,
			Price:     price,
			Total:     total,
		})
		out.TotalInFiat += total
	}

	e.log.WithFields(logrus.Fields{
		"stash":   stash,
		"entries": len(out.EraRewards),
	}).Debug("valued stash rewards")
	return out, nil
}

// NominatorInfo returns a nominator with its valued rewards attached.
// Returns ErrNotFound when the stash has no nominator record.
func (e *Engine) NominatorInfo(ctx context.Context, stash string) (*domain.NominatorInfo, error) {
	rewards, err := e.StashRewards(ctx, stash)
	if err != nil {
		return nil, err
	}

	n, err := e.nominators.GetByAddress(ctx, stash)
	if err != nil {
		return nil, fmt.Errorf("get nominator %s: %w", stash, err)
	}

	targets := n.Targets
	if targets == nil {
		targets = []string{}
	}
	return &domain.NominatorInfo{
		AccountID: n.Address,
		Balance:   n.Balance,
		Targets:   targets,
		Rewards:   rewards,
	}, nil
}
