// Package erapoller keeps the active era of each chain in a shared slot by
// re-reading the chain-info record on a fixed interval.
package erapoller

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"validator-explorer/internal/logging"
	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

// DefaultInterval is the time between two chain-info reads.
const DefaultInterval = 600 * time.Second

// ConnectFunc opens the chain-info store of one chain.
type ConnectFunc func(ctx context.Context) (storage.ChainInfoStore, error)

// Poller writes the active era of one chain into a Slot.
type Poller struct {
	chain    string
	connect  ConnectFunc
	slot     Slot
	interval time.Duration
	onChange func(era uint32)
	log      *logrus.Entry

	last uint32
}

// Options for creating Poller.
type Options struct {
	Chain    string
	Connect  ConnectFunc
	Slot     Slot
	Interval time.Duration // Default: 600s
	// OnChange is called after the slot is written with an era that differs
	// from the previous poll.
	OnChange func(era uint32)
	Log      *logrus.Entry
}

// New creates a new Poller.
func New(opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Poller{
		chain:    opts.Chain,
		connect:  opts.Connect,
		slot:     opts.Slot,
		interval: interval,
		onChange: opts.OnChange,
		log:      logging.OrDefault(opts.Log).WithField("chain", opts.Chain),
	}
}

// Run connects once and then polls until ctx is cancelled. A failed
// connect ends the poller without error: the slot stays unset and readers
// fall back to live reads.
func (p *Poller) Run(ctx context.Context) error {
	store, err := p.connect(ctx)
	if err != nil {
		p.log.WithError(err).Warn("era poller could not connect, not polling")
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.WithField("interval", p.interval).Info("era poller started")
	p.poll(ctx, store)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("era poller stopping")
			return nil
		case <-ticker.C:
			p.poll(ctx, store)
		}
	}
}

// poll reads the chain info once. Read and write failures are logged and
// retried on the next tick.
func (p *Poller) poll(ctx context.Context, store storage.ChainInfoStore) {
	info, err := store.Get(ctx)
	if err != nil {
		observability.RecordEraPoll(p.chain, 0, err)
		p.log.WithError(err).Warn("read chain info")
		return
	}

	if err := p.slot.Set(ctx, p.chain, info.ActiveEra); err != nil {
		observability.RecordEraPoll(p.chain, 0, err)
		p.log.WithError(err).Warn("write era slot")
		return
	}
	observability.RecordEraPoll(p.chain, info.ActiveEra, nil)

	if info.ActiveEra != p.last {
		p.log.WithFields(logrus.Fields{
			"from": p.last,
			"to":   info.ActiveEra,
		}).Info("active era changed")
		p.last = info.ActiveEra
		if p.onChange != nil {
			p.onChange(info.ActiveEra)
		}
	}
}
