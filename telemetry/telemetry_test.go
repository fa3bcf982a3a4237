package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maxpert/pathglob/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct{}

func (fakeCache) Stats() (uint64, uint64) { return 3, 1 }
func (fakeCache) Len() int                { return 2 }

type stubCache struct {
	hits, misses uint64
}

func (c *stubCache) Stats() (uint64, uint64) { return c.hits, c.misses }
func (c *stubCache) Len() int                { return 0 }

type sumCounter struct {
	total float64
}

func (c *sumCounter) Inc()          { c.total++ }
func (c *sumCounter) Add(v float64) { c.total += v }

func TestCollectorAddsCacheDeltas(t *testing.T) {
	prevHits, prevMisses := CacheHitsTotal, CacheMissesTotal
	defer func() {
		CacheHitsTotal, CacheMissesTotal = prevHits, prevMisses
	}()

	hits, misses := &sumCounter{}, &sumCounter{}
	CacheHitsTotal, CacheMissesTotal = hits, misses

	cache := &stubCache{hits: 3, misses: 1}
	mc := NewMetricsCollector(cache, time.Hour)

	mc.collect()
	assert.Equal(t, 3.0, hits.total)
	assert.Equal(t, 1.0, misses.total)

	// Unchanged totals add nothing
	mc.collect()
	assert.Equal(t, 3.0, hits.total)

	cache.hits, cache.misses = 5, 4
	mc.collect()
	assert.Equal(t, 5.0, hits.total)
	assert.Equal(t, 4.0, misses.total)

	// A rebuilt cache starts over without decreasing the counters
	cache.hits, cache.misses = 2, 0
	mc.collect()
	assert.Equal(t, 7.0, hits.total)
	assert.Equal(t, 4.0, misses.total)
}

func TestDisabledTelemetryIsNoop(t *testing.T) {
	registry = nil

	assert.Nil(t, GetMetricsHandler())
	assert.IsType(t, NoopStat{}, NewCounter("filter", "x", "x"))
	assert.IsType(t, noopCounterVec{}, NewCounterVec("filter", "x", "x", []string{"a"}))

	// Noop metrics accept any call
	ItemsTotal.With("request", "included").Inc()
	EvaluateSeconds.Observe(0.1)
}

func TestEnabledTelemetryServesMetrics(t *testing.T) {
	prev := cfg.Config
	defer func() {
		cfg.Config = prev
		registry = nil
	}()

	cfg.Config = cfg.Default()
	cfg.Config.InstanceID = 42
	cfg.Config.Prometheus.Enabled = true

	InitializeTelemetry()
	InitMetrics()

	ItemsTotal.With("request", "included").Inc()
	mc := NewMetricsCollector(fakeCache{}, time.Hour)
	mc.Start()
	mc.Stop()
	mc.Stop()

	handler := GetMetricsHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.True(t, strings.Contains(body, `pathglob_filter_items_total{event="request",instance_id="42",reason="included"} 1`), body)
	assert.Contains(t, body, "# TYPE pathglob_cache_hits_total counter")
	assert.Contains(t, body, `pathglob_cache_hits_total{instance_id="42"} 3`)
	assert.Contains(t, body, `pathglob_cache_misses_total{instance_id="42"} 1`)
	assert.Contains(t, body, `pathglob_cache_entries{instance_id="42"} 2`)
}
