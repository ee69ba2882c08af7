package memory

import (
	"context"
	"sync"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// NominationActionStore is an in-memory implementation of storage.NominationActionStore.
type NominationActionStore struct {
	mu    sync.RWMutex
	byTag map[string]*domain.NominationAction
	order []string // tags in insertion order
}

// NewNominationActionStore creates a new in-memory nomination action store.
func NewNominationActionStore() *NominationActionStore {
	return &NominationActionStore{
		byTag: make(map[string]*domain.NominationAction),
	}
}

// Insert adds a nomination action. Returns ErrDuplicateKey if the tag exists.
func (s *NominationActionStore) Insert(_ context.Context, a *domain.NominationAction) error {
	if a == nil || a.Tag == "" || a.Stash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTag[a.Tag]; exists {
		return storage.ErrDuplicateKey
	}

	actionCopy := *a
	actionCopy.Validators = append([]string(nil), a.Validators...)
	s.byTag[a.Tag] = &actionCopy
	s.order = append(s.order, a.Tag)
	return nil
}

// SetResult records the extrinsic outcome of a tagged action.
func (s *NominationActionStore) SetResult(_ context.Context, tag, extrinsicHash, refKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.byTag[tag]
	if !exists {
		return storage.ErrNotFound
	}
	a.ExtrinsicHash = extrinsicHash
	a.RefKey = refKey
	return nil
}

// GetByStash retrieves the first nomination action of a stash.
func (s *NominationActionStore) GetByStash(_ context.Context, stash string) (*domain.NominationAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tag := range s.order {
		if a := s.byTag[tag]; a.Stash == stash {
			actionCopy := *a
			return &actionCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// RefKeyStore is an in-memory implementation of storage.RefKeyStore.
type RefKeyStore struct {
	mu      sync.RWMutex
	byStash map[string]*domain.RefKeyRecord
}

// NewRefKeyStore creates a new in-memory ref key store.
func NewRefKeyStore() *RefKeyStore {
	return &RefKeyStore{
		byStash: make(map[string]*domain.RefKeyRecord),
	}
}

// Upsert stores the key of a stash, replacing any previous key.
func (s *RefKeyStore) Upsert(_ context.Context, r *domain.RefKeyRecord) error {
	if r == nil || r.Stash == "" || r.RefKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *r
	s.byStash[r.Stash] = &recCopy
	return nil
}

// GetByStash retrieves the key of a stash.
func (s *RefKeyStore) GetByStash(_ context.Context, stash string) (*domain.RefKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byStash[stash]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recCopy := *r
	return &recCopy, nil
}

// GetByKey retrieves the record holding a key.
func (s *RefKeyStore) GetByKey(_ context.Context, refKey string) (*domain.RefKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.byStash {
		if r.RefKey == refKey {
			recCopy := *r
			return &recCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// NewsletterStore is an in-memory implementation of storage.NewsletterStore.
type NewsletterStore struct {
	mu          sync.RWMutex
	subscribers map[string]*domain.NewsletterSubscriber // keyed by email
}

// NewNewsletterStore creates a new in-memory newsletter store.
func NewNewsletterStore() *NewsletterStore {
	return &NewsletterStore{
		subscribers: make(map[string]*domain.NewsletterSubscriber),
	}
}

// Insert adds a subscriber. Returns ErrDuplicateKey if the email exists.
func (s *NewsletterStore) Insert(_ context.Context, sub *domain.NewsletterSubscriber) error {
	if sub == nil || sub.Email == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscribers[sub.Email]; exists {
		return storage.ErrDuplicateKey
	}
	subCopy := *sub
	s.subscribers[sub.Email] = &subCopy
	return nil
}

// Compile-time interface checks.
var (
	_ storage.NominationActionStore = (*NominationActionStore)(nil)
	_ storage.RefKeyStore           = (*RefKeyStore)(nil)
	_ storage.NewsletterStore       = (*NewsletterStore)(nil)
)
