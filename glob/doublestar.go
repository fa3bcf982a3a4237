package glob

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

func init() {
	Register(DoublestarEngine{})
}

// DoublestarEngine matches with github.com/bmatcuk/doublestar/v4, which
// handles zero-segment ** natively. Braces are expanded beforehand so
// numeric sequences behave the same as with GobwasEngine.
type DoublestarEngine struct{}

// Name returns "doublestar"
func (DoublestarEngine) Name() string {
	return "doublestar"
}

// Compile validates and compiles pattern into a Pattern
func (DoublestarEngine) Compile(pattern string) (Pattern, error) {
	return compile(pattern, func(expanded string) ([]matcher, error) {
		escaped := escapeBraces(expanded)
		if !doublestar.ValidatePattern(escaped) {
			return nil, fmt.Errorf("malformed pattern %q", expanded)
		}
		return []matcher{doublestarMatcher(escaped)}, nil
	})
}

type doublestarMatcher string

func (d doublestarMatcher) Match(text string) bool {
	ok, err := doublestar.Match(string(d), text)
	return err == nil && ok
}
