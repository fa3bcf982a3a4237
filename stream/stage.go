package stream

import (
	"context"
	"fmt"

	"github.com/maxpert/pathglob/glob"
	"github.com/maxpert/pathglob/subscription"
	"github.com/rs/zerolog/log"
)

// Observer is notified of every decision a Stage makes
type Observer interface {
	Observe(item subscription.Item, decision subscription.Decision)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(item subscription.Item, decision subscription.Decision)

// Observe calls f
func (f ObserverFunc) Observe(item subscription.Item, decision subscription.Decision) {
	f(item, decision)
}

// Options configures a Stage
type Options struct {
	Buffer     int         // Output channel capacity for Run
	ObjectMode bool        // Always forced to true: items pass through as values
	Engine     glob.Engine // Glob engine (default engine if nil)
	CacheSize  int         // Decision cache entries (0 = no cache)
	Observer   Observer    // Optional decision hook
}

// Stage forwards subscribed items and swallows the rest, preserving order
type Stage[T subscription.Item] struct {
	table     *subscription.Table
	evaluator subscription.Evaluator
	options   Options
}

// NewStage compiles events and returns a stage filtering items of type T.
// Configuration errors are returned here, never while streaming.
func NewStage[T subscription.Item](events any, options Options) (*Stage[T], error) {
	options.ObjectMode = true
	if options.Buffer < 0 {
		options.Buffer = 0
	}

	table, err := subscription.NewCompiler(options.Engine).Compile(events)
	if err != nil {
		return nil, err
	}

	var evaluator subscription.Evaluator = table
	if options.CacheSize > 0 {
		cached, err := subscription.NewCachedEvaluator(table, options.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create stage: %w", err)
		}
		evaluator = cached
	}

	log.Debug().
		Int("events", table.Len()).
		Int("cache_size", options.CacheSize).
		Msg("Created filter stage")

	return &Stage[T]{
		table:     table,
		evaluator: evaluator,
		options:   options,
	}, nil
}

// Table returns the compiled subscription table
func (s *Stage[T]) Table() *subscription.Table {
	return s.table
}

// Evaluator returns the evaluator in use (the table or its cache)
func (s *Stage[T]) Evaluator() subscription.Evaluator {
	return s.evaluator
}

// Options returns the effective options
func (s *Stage[T]) Options() Options {
	return s.options
}

// Evaluate decides item and notifies the observer
func (s *Stage[T]) Evaluate(item T) subscription.Decision {
	decision := s.evaluator.Evaluate(item)
	if s.options.Observer != nil {
		s.options.Observer.Observe(item, decision)
	}
	return decision
}

// Filter reports whether item should be forwarded
func (s *Stage[T]) Filter(item T) bool {
	return s.Evaluate(item).Forward
}

// Pipe reads items from in and writes forwarded ones to out in arrival
// order. It returns nil when in is closed and ctx.Err() when cancelled.
// out is not closed.
func (s *Stage[T]) Pipe(ctx context.Context, in <-chan T, out chan<- T) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-in:
			if !ok {
				return nil
			}
			if !s.Filter(item) {
				continue
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Run starts piping in to a new channel, which is closed once in is closed
// or ctx is cancelled
func (s *Stage[T]) Run(ctx context.Context, in <-chan T) <-chan T {
	out := make(chan T, s.options.Buffer)
	go func() {
		defer close(out)
		if err := s.Pipe(ctx, in, out); err != nil {
			log.Debug().Err(err).Msg("Filter stage stopped")
		}
	}()
	return out
}

// Collect filters items synchronously and returns the forwarded ones
func (s *Stage[T]) Collect(items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if s.Filter(item) {
			out = append(out, item)
		}
	}
	return out
}
