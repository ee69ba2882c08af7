// Package pricecache caches daily asset prices per chain in a bounded LRU
// with TTL, shared by every reward valuation of the process.
package pricecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

const msPerDay = 24 * 60 * 60 * 1000

// readTimeout bounds a shared store read, which outlives the caller that
// started it.
const readTimeout = 30 * time.Second

// DayOf returns the UTC-midnight unix seconds of a millisecond timestamp.
func DayOf(ms int64) int64 {
	day := ms / msPerDay
	if ms < 0 && ms%msPerDay != 0 {
		day--
	}
	return day * (msPerDay / 1000)
}

// Cache maps day buckets to prices, filling misses from a PriceStore.
// Only found prices are cached; a day without a price is re-read on the
// next lookup so late ingestion becomes visible.
type Cache struct {
	chain string
	store storage.PriceStore
	lru   *expirable.LRU[int64, float64]
	group singleflight.Group
}

// New creates a cache holding up to size days for ttl each.
func New(chain string, store storage.PriceStore, size int, ttl time.Duration) *Cache {
	return &Cache{
		chain: chain,
		store: store,
		lru:   expirable.NewLRU[int64, float64](size, nil, ttl),
	}
}

// Get returns the cached price of day, or false on a miss.
func (c *Cache) Get(day int64) (float64, bool) {
	return c.lru.Get(day)
}

// Fill records the price of day. Concurrent fills of the same day are
// harmless since a day has one price.
func (c *Cache) Fill(day int64, price float64) {
	c.lru.Add(day, price)
}

// Price returns the price of day, reading the store on a miss. Concurrent
// misses of one day share a single store read, which runs detached from
// any one caller so a cancelled caller does not fail the others. A day
// without a price yields 0; store failures are returned.
func (c *Cache) Price(ctx context.Context, day int64) (float64, error) {
	if p, ok := c.Get(day); ok {
		observability.RecordPriceCache(c.chain, true)
		return p, nil
	}
	observability.RecordPriceCache(c.chain, false)

	ch := c.group.DoChan(strconv.FormatInt(day, 10), func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readTimeout)
		defer cancel()

		p, err := c.store.GetByDay(readCtx, day)
		if errors.Is(err, storage.ErrNotFound) {
			return 0.0, nil
		}
		if err != nil {
			return nil, err
		}
		c.Fill(day, p.Price)
		return p.Price, nil
	})

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("price of day %d: %w", day, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, fmt.Errorf("price of day %d: %w", day, res.Err)
		}
		return res.Val.(float64), nil
	}
}

// Len returns the number of cached days.
func (c *Cache) Len() int {
	return c.lru.Len()
}
