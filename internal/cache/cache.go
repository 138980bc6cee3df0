// Package cache provides byte-oriented storage tiers for extracted claims.
//
// Tiers are consulted in order; a hit in a later tier is copied into the
// earlier ones. Errors from any tier other than the first are logged and
// treated as misses.
package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
)

// Store is one cache tier
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryStore is a process-local tier safe for concurrent use
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an empty in-memory tier
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Name identifies the tier
func (m *MemoryStore) Name() string {
	return "memory"
}

// Get returns a copy of the stored value
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of stored keys
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Tiered reads through a list of tiers, fastest first.
type Tiered struct {
	tiers   []Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewTiered builds a tiered cache. Nil tiers are skipped.
func NewTiered(log *zap.Logger, m *metrics.Metrics, tiers ...Store) *Tiered {
	t := &Tiered{logger: logger.WithFields(log), metrics: m}
	for _, tier := range tiers {
		if tier != nil {
			t.tiers = append(t.tiers, tier)
		}
	}
	return t
}

// Tiers returns the tier names in lookup order
func (t *Tiered) Tiers() []string {
	names := make([]string, 0, len(t.tiers))
	for _, tier := range t.tiers {
		names = append(names, tier.Name())
	}
	return names
}

// Get returns the first hit, back-filling faster tiers.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, tier := range t.tiers {
		value, ok, err := tier.Get(ctx, key)
		if err != nil {
			t.logger.Warn("cache tier lookup failed",
				zap.String("tier", tier.Name()),
				logger.CacheKey(key),
				zap.Error(err),
			)
			continue
		}
		t.metrics.ObserveCache(tier.Name(), ok)
		if !ok {
			continue
		}
		for _, faster := range t.tiers[:i] {
			t.set(ctx, faster, key, value)
		}
		return value, true
	}
	return nil, false
}

// Set writes value to every tier. Failures are logged, never returned.
func (t *Tiered) Set(ctx context.Context, key string, value []byte) {
	for _, tier := range t.tiers {
		t.set(ctx, tier, key, value)
	}
}

func (t *Tiered) set(ctx context.Context, tier Store, key string, value []byte) {
	if err := tier.Set(ctx, key, value); err != nil {
		t.logger.Warn("cache tier write failed",
			zap.String("tier", tier.Name()),
			logger.CacheKey(key),
			zap.Error(err),
		)
	}
}
