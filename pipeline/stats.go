package pipeline

import (
	"strings"
	"sync/atomic"

	"github.com/maxpert/pathglob/subscription"
	"github.com/puzpuzpuz/xsync/v3"
)

// UnsubscribedEvent is the key under which events without a subscription
// are counted, so their cardinality stays bounded
const UnsubscribedEvent = "_unsubscribed"

type eventCounters struct {
	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

// EventCounts is a point-in-time copy of one event's counters
type EventCounts struct {
	Forwarded uint64 `json:"forwarded"`
	Dropped   uint64 `json:"dropped"`
}

// Snapshot is a point-in-time copy of all counters
type Snapshot struct {
	Events          map[string]EventCounts `json:"events"`
	Forwarded       uint64                 `json:"forwarded"`
	Dropped         uint64                 `json:"dropped"`
	DecodeErrors    uint64                 `json:"decode_errors"`
	PublishFailures uint64                 `json:"publish_failures"`
}

// Stats counts pipeline outcomes per event. Safe for concurrent use.
type Stats struct {
	events          *xsync.MapOf[string, *eventCounters]
	decodeErrors    atomic.Uint64
	publishFailures atomic.Uint64
}

// NewStats creates empty stats
func NewStats() *Stats {
	return &Stats{events: xsync.NewMapOf[string, *eventCounters]()}
}

// Observe records a decision; Stats can be used as a stream.Observer
func (s *Stats) Observe(item subscription.Item, decision subscription.Decision) {
	key := strings.ToLower(item.EventType())
	if decision.Reason == subscription.ReasonUnsubscribed {
		key = UnsubscribedEvent
	}

	counters, _ := s.events.LoadOrCompute(key, func() *eventCounters {
		return &eventCounters{}
	})
	if decision.Forward {
		counters.forwarded.Add(1)
	} else {
		counters.dropped.Add(1)
	}
}

// DecodeError records a record that could not be read or peeked
func (s *Stats) DecodeError() {
	s.decodeErrors.Add(1)
}

// PublishFailure records a record dropped after exhausting retries
func (s *Stats) PublishFailure() {
	s.publishFailures.Add(1)
}

// Snapshot copies the current counters
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Events:          make(map[string]EventCounts, s.events.Size()),
		DecodeErrors:    s.decodeErrors.Load(),
		PublishFailures: s.publishFailures.Load(),
	}

	s.events.Range(func(event string, c *eventCounters) bool {
		counts := EventCounts{Forwarded: c.forwarded.Load(), Dropped: c.dropped.Load()}
		snap.Events[event] = counts
		snap.Forwarded += counts.Forwarded
		snap.Dropped += counts.Dropped
		return true
	})

	return snap
}
