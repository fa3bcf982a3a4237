package subscription

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the decision cache size used when none is given
const DefaultCacheSize = 4096

type cachedDecision struct {
	event    string
	path     string
	decision Decision
}

// CachedEvaluator memoizes table decisions in an LRU cache.
// Decisions are identical to the table's; entries are keyed by a hash of
// event and path and verified on hit.
type CachedEvaluator struct {
	table  *Table
	cache  *lru.Cache[uint64, cachedDecision]
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Evaluator = (*CachedEvaluator)(nil)

// NewCachedEvaluator wraps table with a decision cache of size entries
func NewCachedEvaluator(table *Table, size int) (*CachedEvaluator, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[uint64, cachedDecision](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	return &CachedEvaluator{table: table, cache: cache}, nil
}

// Evaluate returns the cached decision for item, computing it on a miss
func (c *CachedEvaluator) Evaluate(item Item) Decision {
	event := strings.ToLower(item.EventType())
	path := item.EventPath()
	key := xxhash.Sum64String(event + "\x00" + path)

	if entry, ok := c.cache.Get(key); ok && entry.event == event && entry.path == path {
		c.hits.Add(1)
		return entry.decision
	}

	c.misses.Add(1)
	decision := c.table.Evaluate(Event{Type: event, Path: path})
	c.cache.Add(key, cachedDecision{event: event, path: path, decision: decision})
	return decision
}

// Table returns the wrapped table
func (c *CachedEvaluator) Table() *Table {
	return c.table
}

// Stats returns the cache hit and miss counts
func (c *CachedEvaluator) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached decisions
func (c *CachedEvaluator) Len() int {
	return c.cache.Len()
}
