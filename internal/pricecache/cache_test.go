package pricecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// countingStore counts GetByDay calls.
type countingStore struct {
	mu     sync.Mutex
	prices map[int64]float64
	calls  atomic.Int32
	err    error
	delay  time.Duration
}

func newCountingStore(prices map[int64]float64) *countingStore {
	return &countingStore{prices: prices}
}

func (s *countingStore) GetByDay(_ context.Context, day int64) (*domain.CoinPrice, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[day]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &domain.CoinPrice{TimestampDay: day, Price: p}, nil
}

func (s *countingStore) Upsert(_ context.Context, p *domain.CoinPrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[p.TimestampDay] = p.Price
	return nil
}

func TestDayOf(t *testing.T) {
	tests := []struct {
		ms   int64
		want int64
	}{
		{0, 0},
		{1600000000000, 1599955200},
		{1599955200000, 1599955200},
		{1599955199999, 1599868800},
		{-1, -86400},
	}
	for _, tt := range tests {
		if got := DayOf(tt.ms); got != tt.want {
			t.Errorf("DayOf(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestPrice_CachesHit(t *testing.T) {
	store := newCountingStore(map[int64]float64{86400: 2.5})
	c := New("KSM", store, 16, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		p, err := c.Price(ctx, 86400)
		if err != nil {
			t.Fatalf("Price failed: %v", err)
		}
		if p != 2.5 {
			t.Errorf("Expected 2.5, got %v", p)
		}
	}
	if n := store.calls.Load(); n != 1 {
		t.Errorf("Expected 1 store call, got %d", n)
	}
}

func TestGetAfterFill(t *testing.T) {
	store := newCountingStore(map[int64]float64{})
	c := New("KSM", store, 16, time.Hour)

	if _, ok := c.Get(86400); ok {
		t.Fatal("Expected miss on empty cache")
	}
	c.Fill(86400, 3)
	for i := 0; i < 2; i++ {
		p, ok := c.Get(86400)
		if !ok || p != 3 {
			t.Errorf("Expected cached 3, got %v %v", p, ok)
		}
	}
	if n := store.calls.Load(); n != 0 {
		t.Errorf("Expected no store calls, got %d", n)
	}
}

func TestPrice_MissDefaultsToZeroAndIsNotCached(t *testing.T) {
	store := newCountingStore(map[int64]float64{})
	c := New("KSM", store, 16, time.Hour)
	ctx := context.Background()

	p, err := c.Price(ctx, 86400)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if p != 0 {
		t.Errorf("Expected 0 for missing day, got %v", p)
	}

	_ = store.Upsert(ctx, &domain.CoinPrice{TimestampDay: 86400, Price: 4})
	p, err = c.Price(ctx, 86400)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if p != 4 {
		t.Errorf("Expected late price 4, got %v", p)
	}
}

func TestPrice_StoreError(t *testing.T) {
	store := newCountingStore(nil)
	store.err = storage.ErrUnavailable
	c := New("KSM", store, 16, time.Hour)

	_, err := c.Price(context.Background(), 86400)
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Failed read must not be cached")
	}
}

func TestPrice_ConcurrentMissesShareRead(t *testing.T) {
	store := newCountingStore(map[int64]float64{86400: 1})
	store.delay = 50 * time.Millisecond
	c := New("KSM", store, 16, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Price(context.Background(), 86400); err != nil {
				t.Errorf("Price failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := store.calls.Load(); n > 2 {
		t.Errorf("Expected concurrent misses to share reads, got %d calls", n)
	}
}

func TestCapacityBounded(t *testing.T) {
	c := New("KSM", newCountingStore(nil), 2, time.Hour)
	c.Fill(1, 1)
	c.Fill(2, 2)
	c.Fill(3, 3)
	if c.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("Expected oldest day evicted")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New("KSM", newCountingStore(nil), 4, 20*time.Millisecond)
	c.Fill(1, 1)
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get(1); ok {
		t.Error("Expected entry to expire")
	}
}

// gatedStore blocks reads until released, honoring the read context.
type gatedStore struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) GetByDay(ctx context.Context, day int64) (*domain.CoinPrice, error) {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.release:
	}
	return &domain.CoinPrice{TimestampDay: day, Price: 5}, nil
}

func (s *gatedStore) Upsert(context.Context, *domain.CoinPrice) error {
	return nil
}

func TestPrice_CancelledCallerDoesNotFailOthers(t *testing.T) {
	store := &gatedStore{entered: make(chan struct{}), release: make(chan struct{})}
	c := New("KSM", store, 16, time.Hour)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Price(ctxA, 86400)
		errA <- err
	}()
	<-store.entered

	type result struct {
		price float64
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := c.Price(context.Background(), 86400)
		resB <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancelled caller to get context.Canceled, got %v", err)
	}

	close(store.release)
	r := <-resB
	if r.err != nil {
		t.Fatalf("Expected live caller to succeed, got %v", r.err)
	}
	if r.price != 5 {
		t.Errorf("Expected price 5, got %v", r.price)
	}
	if p, ok := c.Get(86400); !ok || p != 5 {
		t.Errorf("Expected shared read to fill the cache, got %v %v", p, ok)
	}
}
