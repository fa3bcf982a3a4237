// Package notify fans filter decisions out to live subscribers, such as
// admin API taps.
package notify

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/maxpert/pathglob/subscription"
)

// defaultTapBufferSize is the buffer size for tap channels.
// Subscribers that can't keep up will have taps dropped (non-blocking send).
const defaultTapBufferSize = 64

// Tap is one observed decision
type Tap struct {
	Event   string              `json:"event"`
	Path    string              `json:"path"`
	Forward bool                `json:"forward"`
	Reason  subscription.Reason `json:"reason"`
	Pattern string              `json:"pattern,omitempty"`
}

// Filter selects which taps a subscriber receives
type Filter struct {
	Events        []string // Event names, matched case-insensitively; empty = all
	ForwardedOnly bool     // Skip dropped items
}

// tapSubscription represents a single subscriber.
type tapSubscription struct {
	id     uint64
	events map[string]struct{}
	fwd    bool
	ch     chan Tap
	closed atomic.Bool
}

// matches checks if a tap passes this subscription's filter.
func (s *tapSubscription) matches(tap Tap) bool {
	if s.fwd && !tap.Forward {
		return false
	}
	if len(s.events) == 0 {
		return true
	}
	_, ok := s.events[tap.Event]
	return ok
}

// close closes the subscription channel if not already closed.
func (s *tapSubscription) close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}

// Hub is a thread-safe fan-out of decisions. It implements stream.Observer.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[uint64]*tapSubscription
	nextID        atomic.Uint64
	active        atomic.Int64
	dropped       atomic.Uint64
}

// NewHub creates a new notification hub.
func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[uint64]*tapSubscription),
	}
}

// Observe sends a decision to all matching subscribers (non-blocking).
func (h *Hub) Observe(item subscription.Item, decision subscription.Decision) {
	if h.active.Load() == 0 {
		return
	}

	tap := Tap{
		Event:   strings.ToLower(item.EventType()),
		Path:    item.EventPath(),
		Forward: decision.Forward,
		Reason:  decision.Reason,
		Pattern: decision.Pattern,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscriptions {
		if !sub.matches(tap) {
			continue
		}

		select {
		case sub.ch <- tap:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe creates a new subscription and returns the tap channel and cancel function.
// The returned channel is buffered. If the subscriber cannot keep up, taps
// are dropped silently by Observe(). The cancel function is idempotent.
func (h *Hub) Subscribe(filter Filter) (<-chan Tap, func()) {
	sub := &tapSubscription{
		id:  h.nextID.Add(1),
		fwd: filter.ForwardedOnly,
		ch:  make(chan Tap, defaultTapBufferSize),
	}
	if len(filter.Events) > 0 {
		sub.events = make(map[string]struct{}, len(filter.Events))
		for _, e := range filter.Events {
			sub.events[strings.ToLower(e)] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subscriptions[sub.id] = sub
	h.mu.Unlock()
	h.active.Add(1)

	cancel := func() {
		h.unsubscribe(sub.id)
	}

	return sub.ch, cancel
}

// Len returns the number of active subscriptions
func (h *Hub) Len() int {
	return int(h.active.Load())
}

// Dropped returns the number of taps dropped because a subscriber was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// unsubscribe removes a subscription and closes its channel.
func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscriptions[id]
	if ok {
		delete(h.subscriptions, id)
	}
	h.mu.Unlock()

	if ok {
		h.active.Add(-1)
		sub.close()
	}
}
