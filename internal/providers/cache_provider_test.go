package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"arxivmon/internal/structures"
)

type nopTestLogger struct{}

func (nopTestLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (nopTestLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (nopTestLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (nopTestLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (nopTestLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (nopTestLogger) Close()                                        {}

type countingMetrics struct {
	hits   int
	misses int
}

func (m *countingMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *countingMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *countingMetrics) IncCacheHits()                                    { m.hits++ }
func (m *countingMetrics) IncCacheMisses()                                  { m.misses++ }
func (m *countingMetrics) IncFetchesTotal(_ string)                         {}
func (m *countingMetrics) ObserveFetchDuration(_ time.Duration)             {}

func cacheConfig(enabled bool, sizeMB int) *structures.Config {
	return &structures.Config{
		Cache: structures.CacheConfig{
			Enabled: enabled,
			Size:    sizeMB,
			TTL:     30 * time.Second,
		},
	}
}

func TestCacheProvider_Disabled(t *testing.T) {
	cache := NewCacheProvider(cacheConfig(false, 16), nopTestLogger{})

	cache.Set("papers", []byte("data"))
	_, ok := cache.Get("papers")
	assert.False(t, ok)
}

func TestCacheProvider_ZeroSizeFallsBackToNoop(t *testing.T) {
	cache := NewCacheProvider(cacheConfig(true, 0), nopTestLogger{})

	cache.Set("papers", []byte("data"))
	_, ok := cache.Get("papers")
	assert.False(t, ok)
}

func TestCacheProvider_SetGet(t *testing.T) {
	cache := NewCacheProvider(cacheConfig(true, 1), nopTestLogger{})

	cache.Set("papers", []byte(`[{"id":"2301.00001"}]`))

	val, ok := cache.Get("papers")
	assert.True(t, ok)
	assert.Equal(t, []byte(`[{"id":"2301.00001"}]`), val)
}

func TestCacheProvider_GetMissing(t *testing.T) {
	cache := NewCacheProvider(cacheConfig(true, 1), nopTestLogger{})

	_, ok := cache.Get("absent")
	assert.False(t, ok)
}

func TestCacheProvider_Del(t *testing.T) {
	cache := NewCacheProvider(cacheConfig(true, 1), nopTestLogger{})

	cache.Set("status", []byte("old"))
	cache.Del("status")

	_, ok := cache.Get("status")
	assert.False(t, ok)
}

func TestInstrumentedCache_CountsHitsAndMisses(t *testing.T) {
	metrics := &countingMetrics{}
	cache := &MetricsCacheProvider{
		inner:   NewCacheProvider(cacheConfig(true, 1), nopTestLogger{}),
		metrics: metrics,
	}

	_, _ = cache.Get("papers")
	cache.Set("papers", []byte("x"))
	_, _ = cache.Get("papers")

	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
}

func TestInstrumentedCache_DisabledStaysNoop(t *testing.T) {
	metrics := &countingMetrics{}
	cache := NewInstrumentedCacheProvider(cacheConfig(false, 16), nopTestLogger{}, metrics)

	_, _ = cache.Get("papers")
	assert.Equal(t, 0, metrics.misses)
}
