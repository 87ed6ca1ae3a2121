package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is a process-local Cache.
type Memory struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemory creates a memory cache and starts its expiry loop.
// Call Stop to release it.
func NewMemory() *Memory {
	items := ttlcache.New(
		ttlcache.WithTTL[string, []byte](DefaultTTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &Memory{items: items}
}

// Get implements Cache
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

// Set implements Cache
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.items.Set(key, stored, ttl)
	return nil
}

// Len returns the number of live entries
func (m *Memory) Len() int {
	return m.items.Len()
}

// Stop halts the expiry loop
func (m *Memory) Stop() {
	m.items.Stop()
}
