package stream

import (
	"github.com/maxpert/pathglob/subscription"
)

// Record is a loosely typed item. Only the "event" and "path" fields are
// read; all fields pass through untouched.
type Record map[string]any

var _ subscription.Item = Record(nil)

// EventType returns the "event" field in string form
func (r Record) EventType() string {
	return subscription.Coerce(r["event"])
}

// EventPath returns the "path" field in string form, or "" when it is
// absent or falsy
func (r Record) EventPath() string {
	return subscription.Coerce(r["path"])
}
