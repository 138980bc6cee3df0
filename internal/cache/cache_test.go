package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("payload")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got), "stored value is copied")
	assert.Equal(t, 1, m.Len())
}

func newRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(context.Background(), RedisConfig{Address: mr.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedis(t, time.Hour)

	_, ok, err := store.Get(ctx, "resume:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "resume:abc", []byte(`{"skills":{}}`)))
	got, ok, err := store.Get(ctx, "resume:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"skills":{}}`, string(got))

	assert.True(t, mr.Exists("fitscore:claims:resume:abc"))
	assert.Equal(t, time.Hour, mr.TTL("fitscore:claims:resume:abc"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = store.Get(ctx, "resume:abc")
	require.NoError(t, err)
	assert.False(t, ok, "expired")
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisStore(context.Background(), RedisConfig{Address: addr})
	assert.ErrorContains(t, err, "redis ping failed")
}

type failingStore struct{}

func (failingStore) Name() string { return "broken" }
func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func TestTiered_BackfillsFasterTiers(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryStore()
	redisStore, _ := newRedis(t, 0)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	require.NoError(t, redisStore.Set(ctx, "jd:1", []byte("v")))

	tiered := NewTiered(nil, m, memory, nil, redisStore)
	assert.Equal(t, []string{"memory", "redis"}, tiered.Tiers())

	got, ok := tiered.Get(ctx, "jd:1")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
	assert.Equal(t, 1, memory.Len(), "memory tier back-filled")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("redis", "hit")))

	_, ok = tiered.Get(ctx, "jd:1")
	require.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "hit")))
}

func TestTiered_FailuresAreLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	memory := NewMemoryStore()

	tiered := NewTiered(zap.New(core), nil, memory, failingStore{})
	tiered.Set(ctx, "resume:abcdefabcdefabcdef", []byte("v"))

	got, ok := tiered.Get(ctx, "resume:abcdefabcdefabcdef")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	_, ok = tiered.Get(ctx, "missing")
	assert.False(t, ok)

	entries := logs.FilterField(zap.String("tier", "broken")).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "cache tier write failed", entries[0].Message)
	assert.Equal(t, "cache tier lookup failed", entries[1].Message)
	assert.Equal(t, "resume:abcde", entries[0].ContextMap()["cache_key"])
}
