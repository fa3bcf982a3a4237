// Package subscription compiles per-event path filters and evaluates items
// against them.
//
// # Configuration
//
// A configuration maps event names to filter values of varying shape:
//
//	events := map[string]any{
//		"request":  "*",                                   // every path
//		"log":      []string{"/api/**", "/admin/*"},       // include list
//		"response": map[string]any{"exclude": "/health"},  // exclude only
//		"error":    map[string]any{
//			"include": "/api/**",
//			"exclude": []string{"/api/internal/**"},
//		},
//	}
//
// ParseSpec turns each value into a FilterSpec (Wildcard, Patterns or
// Structured), and Compile builds an immutable Table keyed by lowercase
// event name:
//
//	table, err := subscription.Compile(events)
//	if err != nil {
//		return err // ErrInvalidConfiguration
//	}
//
// # Evaluation
//
// Evaluate and ShouldForward decide per item, in order:
//
//  1. events without a rule are dropped
//  2. items without a path are forwarded
//  3. a path matching any exclude pattern is dropped
//  4. a path must match an include pattern when there are any
//
// Evaluation never fails. Tables are read-only after Compile, so any number
// of goroutines may evaluate against the same Table.
//
// CachedEvaluator adds an LRU of recent decisions for streams with a small
// working set of paths.
package subscription
