package claims

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/cache"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Cache memoizes extractions by content key. Within a process each key is
// computed at most once, concurrent callers for the same key share one
// computation, and a returned Extraction is the same object for every caller.
// Optional persistent tiers (Redis, Postgres) survive restarts.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]*Extraction
	group      singleflight.Group
	persistent *cache.Tiered
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewCache creates a cache with optional persistent tiers, fastest first.
func NewCache(log *zap.Logger, m *metrics.Metrics, tiers ...cache.Store) *Cache {
	c := &Cache{
		items:   make(map[string]*Extraction),
		logger:  logger.WithFields(log),
		metrics: m,
	}
	if len(tiers) > 0 {
		c.persistent = cache.NewTiered(log, m, tiers...)
	}
	return c
}

// Len returns the number of extractions held in memory
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetOrCompute returns the extraction for key, calling compute on a miss.
// Errors are not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, kind types.DocumentKind, compute func(context.Context) (*Extraction, error)) (*Extraction, error) {
	if e, ok := c.lookup(key); ok {
		c.metrics.ObserveCache("process", true)
		return e, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if e, ok := c.lookup(key); ok {
			return e, nil
		}
		c.metrics.ObserveCache("process", false)

		if e, ok := c.loadPersistent(ctx, key, kind); ok {
			c.store(key, e)
			return e, nil
		}

		e, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, e)
		c.savePersistent(ctx, key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight extraction", logger.CacheKey(key))
	}
	return v.(*Extraction), nil
}

func (c *Cache) lookup(key string) (*Extraction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	return e, ok
}

func (c *Cache) store(key string, e *Extraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = e
}

func (c *Cache) loadPersistent(ctx context.Context, key string, kind types.DocumentKind) (*Extraction, bool) {
	if c.persistent == nil {
		return nil, false
	}
	payload, ok := c.persistent.Get(ctx, key)
	if !ok {
		return nil, false
	}
	e, err := decodePayload(kind, key, payload)
	if err != nil {
		c.logger.Warn("discarding unreadable cached extraction", logger.CacheKey(key), zap.Error(err))
		return nil, false
	}
	return e, true
}

func (c *Cache) savePersistent(ctx context.Context, key string, e *Extraction) {
	if c.persistent == nil {
		return
	}
	payload, err := e.MarshalClaims()
	if err != nil {
		c.logger.Warn("failed to encode extraction for cache", logger.CacheKey(key), zap.Error(err))
		return
	}
	c.persistent.Set(ctx, key, payload)
}

func decodePayload(kind types.DocumentKind, key string, payload []byte) (*Extraction, error) {
	e := &Extraction{Kind: kind, CacheKey: key}
	switch kind {
	case types.KindResume:
		var resume types.ParsedResume
		if err := json.Unmarshal(payload, &resume); err != nil {
			return nil, err
		}
		resume.EnsureDefaults()
		e.Resume = &resume
	default:
		var jd types.ParsedJD
		if err := json.Unmarshal(payload, &jd); err != nil {
			return nil, err
		}
		jd.EnsureDefaults()
		e.JD = &jd
	}
	return e, nil
}
