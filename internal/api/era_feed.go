package api

import (
	"sync"
)

// EraFeed fans active era changes out to the websocket clients of each
// chain. The era poller publishes into it.
type EraFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan uint32]struct{}
}

// NewEraFeed creates an empty feed.
func NewEraFeed() *EraFeed {
	return &EraFeed{subs: make(map[string]map[chan uint32]struct{})}
}

// Publish delivers era to every subscriber of chain. A subscriber that has
// not consumed the previous era gets the newer one instead.
func (f *EraFeed) Publish(chain string, era uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[chain] {
		select {
		case ch <- era:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- era
		}
	}
}

// Subscribe registers a subscriber of chain. The returned cancel func must
// be called once the subscriber stops reading.
func (f *EraFeed) Subscribe(chain string) (<-chan uint32, func()) {
	ch := make(chan uint32, 1)

	f.mu.Lock()
	if f.subs[chain] == nil {
		f.subs[chain] = make(map[chan uint32]struct{})
	}
	f.subs[chain][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[chain], ch)
			f.mu.Unlock()
		})
	}
}

// Subscribers returns the number of subscribers of chain.
func (f *EraFeed) Subscribers(chain string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[chain])
}
