package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"validator-explorer/internal/storage"
)

// Source is the fast-read store precomputed snapshots are published to.
// Get returns storage.ErrNotFound when chain has no value under key.
type Source interface {
	Get(ctx context.Context, chain, key string) ([]byte, error)
}

// RedisSource reads snapshots from redis keys named "<chain><key>".
type RedisSource struct {
	client *redis.Client
}

// NewRedisSource creates a RedisSource on client.
func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

// Get retrieves the raw snapshot.
func (s *RedisSource) Get(ctx context.Context, chain, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, chain+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %s%s: %w", chain, key, errors.Join(storage.ErrUnavailable, err))
	}
	return data, nil
}

// MemorySource is an in-memory Source for tests and --use-memory runs.
type MemorySource struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{data: make(map[string][]byte)}
}

// Put publishes a snapshot.
func (s *MemorySource) Put(chain, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	s.data[chain+key] = dataCopy
}

// Get retrieves the raw snapshot.
func (s *MemorySource) Get(_ context.Context, chain, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[chain+key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return dataCopy, nil
}

var (
	_ Source = (*RedisSource)(nil)
	_ Source = (*MemorySource)(nil)
)
