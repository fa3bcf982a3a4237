package subscription

// WildcardMarker is the flat value that subscribes to every path of an event
const WildcardMarker = "*"

// FilterSpec is the parsed form of one event's filter configuration.
// It is one of Wildcard, Patterns or Structured.
type FilterSpec interface {
	filterSpec()
}

// Wildcard accepts every path of the event
type Wildcard struct{}

// Patterns is a flat include list
type Patterns []string

// Structured carries separate include and exclude lists
type Structured struct {
	Include []string `json:"include" toml:"include"`
	Exclude []string `json:"exclude" toml:"exclude"`
}

func (Wildcard) filterSpec()   {}
func (Patterns) filterSpec()   {}
func (Structured) filterSpec() {}

// ParseSpec decides the shape of a loosely typed filter value:
//
//   - "*" or a falsy value (nil, false, 0, "") is a Wildcard
//   - a string, any other scalar, or any list is Patterns
//   - a map with a truthy "include" or "exclude" is Structured, each side
//     parsed like a flat value; any other map is a single flat pattern
//     (its string form) and matches almost nothing
//
// Values that already are a FilterSpec are returned unchanged.
func ParseSpec(v any) FilterSpec {
	if spec, ok := v.(FilterSpec); ok {
		return spec
	}

	if obj, ok := asObject(v); ok {
		include, exclude := obj["include"], obj["exclude"]
		if Truthy(include) || Truthy(exclude) {
			return Structured{
				Include: flatPatterns(include),
				Exclude: flatPatterns(exclude),
			}
		}
	}

	if patterns := flatPatterns(v); len(patterns) > 0 || isList(v) {
		return Patterns(patterns)
	}
	return Wildcard{}
}

// flatPatterns turns a flat value into pattern sources.
// Lists and truthy values other than the wildcard marker yield patterns;
// everything else yields none.
func flatPatterns(v any) []string {
	if isList(v) {
		items := listItems(v)
		patterns := make([]string, len(items))
		for i, item := range items {
			patterns[i] = Stringify(item)
		}
		return patterns
	}

	if s, ok := v.(string); ok && s == WildcardMarker {
		return []string{}
	}
	if Truthy(v) {
		return []string{Stringify(v)}
	}
	return []string{}
}

// Normalize returns the include and exclude sources of a spec.
// Both slices are always non-nil.
func Normalize(spec FilterSpec) (include, exclude []string) {
	switch s := spec.(type) {
	case Patterns:
		return clone(s), []string{}
	case Structured:
		return clone(s.Include), clone(s.Exclude)
	}
	return []string{}, []string{}
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
