package subscription

import (
	"sort"
	"strings"

	"github.com/maxpert/pathglob/glob"
)

// PatternList is an ordered list of compiled patterns
type PatternList []glob.Pattern

// Strings returns the pattern sources in order, never nil
func (l PatternList) Strings() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.String()
	}
	return out
}

// Find returns the first pattern matching path
func (l PatternList) Find(path string) (glob.Pattern, bool) {
	for _, p := range l {
		if p.Match(path) {
			return p, true
		}
	}
	return nil, false
}

// Rule is the compiled include/exclude pair of one event.
// Both lists are always non-nil.
type Rule struct {
	Include PatternList
	Exclude PatternList
}

// Unrestricted reports whether the rule accepts every path
func (r Rule) Unrestricted() bool {
	return len(r.Include) == 0 && len(r.Exclude) == 0
}

// Spec returns the rule as pattern sources
func (r Rule) Spec() Structured {
	return Structured{
		Include: r.Include.Strings(),
		Exclude: r.Exclude.Strings(),
	}
}

// Table maps lowercase event names to their rules.
// A Table is immutable once compiled and safe for concurrent use.
type Table struct {
	rules map[string]Rule
}

// Lookup returns the rule for event, matched case-insensitively
func (t *Table) Lookup(event string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	rule, ok := t.rules[strings.ToLower(event)]
	return rule, ok
}

// Len returns the number of subscribed events
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Events returns the subscribed event names, sorted
func (t *Table) Events() []string {
	if t == nil {
		return []string{}
	}
	events := make([]string, 0, len(t.rules))
	for event := range t.rules {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// Specs returns every rule as pattern sources, keyed by event
func (t *Table) Specs() map[string]Structured {
	specs := make(map[string]Structured, t.Len())
	if t == nil {
		return specs
	}
	for event, rule := range t.rules {
		specs[event] = rule.Spec()
	}
	return specs
}
