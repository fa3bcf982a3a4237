package telemetry

import (
	"sync"
	"time"
)

// CacheStatsProvider is implemented by decision caches
type CacheStatsProvider interface {
	Stats() (hits, misses uint64)
	Len() int
}

// MetricsCollector periodically copies cache stats into telemetry metrics
type MetricsCollector struct {
	provider CacheStatsProvider
	interval time.Duration

	// last totals seen, owned by the collect loop
	lastHits   uint64
	lastMisses uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(provider CacheStatsProvider, interval time.Duration) *MetricsCollector {
	return &MetricsCollector{
		provider: provider,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection
func (mc *MetricsCollector) Start() {
	mc.wg.Add(1)
	go mc.collectLoop()
}

// Stop stops the collector
func (mc *MetricsCollector) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopCh) })
	mc.wg.Wait()
}

func (mc *MetricsCollector) collectLoop() {
	defer mc.wg.Done()

	ticker := time.NewTicker(mc.interval)
	defer ticker.Stop()

	mc.collect()

	for {
		select {
		case <-ticker.C:
			mc.collect()
		case <-mc.stopCh:
			mc.collect()
			return
		}
	}
}

func (mc *MetricsCollector) collect() {
	if mc.provider == nil {
		return
	}

	hits, misses := mc.provider.Stats()
	CacheHitsTotal.Add(float64(delta(hits, mc.lastHits)))
	CacheMissesTotal.Add(float64(delta(misses, mc.lastMisses)))
	mc.lastHits, mc.lastMisses = hits, misses
	CacheEntries.Set(float64(mc.provider.Len()))
}

// delta returns the growth from prev to cur. A total below prev means the
// provider was reset, so all of cur is new.
func delta(cur, prev uint64) uint64 {
	if cur < prev {
		return cur
	}
	return cur - prev
}
