package subscription

// Item is anything carrying an event type and an optional path
type Item interface {
	// EventType returns the item's event tag
	EventType() string
	// EventPath returns the item's path, or "" when absent
	EventPath() string
}

// Event is the plain struct form of an Item
type Event struct {
	Type string `json:"event" msgpack:"event"`
	Path string `json:"path,omitempty" msgpack:"path,omitempty"`
}

// EventType returns e.Type
func (e Event) EventType() string { return e.Type }

// EventPath returns e.Path
func (e Event) EventPath() string { return e.Path }

// Reason explains a Decision
type Reason string

const (
	ReasonUnsubscribed Reason = "unsubscribed"
	ReasonNoPath       Reason = "no_path"
	ReasonExcluded     Reason = "excluded"
	ReasonIncluded     Reason = "included"
	ReasonNotIncluded  Reason = "not_included"
	ReasonUnrestricted Reason = "unrestricted"
)

// Decision is the outcome of evaluating one item
type Decision struct {
	Forward bool   `json:"forward"`
	Reason  Reason `json:"reason"`
	// Pattern is the source of the pattern that decided, if any
	Pattern string `json:"pattern,omitempty"`
}

// Evaluator decides whether items are forwarded
type Evaluator interface {
	Evaluate(item Item) Decision
}

var _ Evaluator = (*Table)(nil)

// Evaluate decides whether item passes:
//
//  1. an event without a rule is dropped
//  2. an item without a path is forwarded
//  3. a path matching any exclude pattern is dropped
//  4. with include patterns, the path must match one of them; without, it passes
func (t *Table) Evaluate(item Item) Decision {
	rule, ok := t.Lookup(item.EventType())
	if !ok {
		return Decision{Forward: false, Reason: ReasonUnsubscribed}
	}
	return rule.Evaluate(item.EventPath())
}

// Evaluate applies the rule to path
func (r Rule) Evaluate(path string) Decision {
	if path == "" {
		return Decision{Forward: true, Reason: ReasonNoPath}
	}

	if p, ok := r.Exclude.Find(path); ok {
		return Decision{Forward: false, Reason: ReasonExcluded, Pattern: p.String()}
	}

	if len(r.Include) == 0 {
		return Decision{Forward: true, Reason: ReasonUnrestricted}
	}
	if p, ok := r.Include.Find(path); ok {
		return Decision{Forward: true, Reason: ReasonIncluded, Pattern: p.String()}
	}
	return Decision{Forward: false, Reason: ReasonNotIncluded}
}

// ShouldForward reports whether item passes table
func ShouldForward(table *Table, item Item) bool {
	return table.Evaluate(item).Forward
}
