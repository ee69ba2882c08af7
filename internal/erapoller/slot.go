package erapoller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Slot holds the last polled active era of each chain. It has a single
// writer per chain (its poller) and any number of readers. Get returns 0
// for a chain that was never written.
type Slot interface {
	Get(ctx context.Context, chain string) (uint32, error)
	Set(ctx context.Context, chain string, era uint32) error
}

// MemorySlot is a process-local Slot.
type MemorySlot struct {
	mu   sync.RWMutex
	eras map[string]uint32
}

// NewMemorySlot creates an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{eras: make(map[string]uint32)}
}

// Get returns the era of chain, or 0 if never set.
func (s *MemorySlot) Get(_ context.Context, chain string) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eras[chain], nil
}

// Set stores the era of chain.
func (s *MemorySlot) Set(_ context.Context, chain string, era uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eras[chain] = era
	return nil
}

// RedisSlot keeps the era under "<chain>currentEra" so every replica
// reads the same value.
type RedisSlot struct {
	client *redis.Client
}

// NewRedisSlot creates a RedisSlot on client.
func NewRedisSlot(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

func eraKey(chain string) string {
	return chain + "currentEra"
}

// Get returns the era of chain, or 0 if the key is absent.
func (s *RedisSlot) Get(ctx context.Context, chain string) (uint32, error) {
	data, err := s.client.Get(ctx, eraKey(chain)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get era of %s: %w", chain, err)
	}

	era, err := strconv.ParseUint(data, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse era of %s: %w", chain, err)
	}
	return uint32(era), nil
}

// Set stores the era of chain without expiry.
func (s *RedisSlot) Set(ctx context.Context, chain string, era uint32) error {
	if err := s.client.Set(ctx, eraKey(chain), strconv.FormatUint(uint64(era), 10), 0).Err(); err != nil {
		return fmt.Errorf("set era of %s: %w", chain, err)
	}
	return nil
}

var (
	_ Slot = (*MemorySlot)(nil)
	_ Slot = (*RedisSlot)(nil)
)
