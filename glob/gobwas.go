package glob

import (
	"strings"

	"github.com/gobwas/glob"
)

// Separator is the path separator patterns are matched against
const Separator = '/'

func init() {
	Register(GobwasEngine{})
}

// GobwasEngine compiles patterns with github.com/gobwas/glob using '/' as the
// separator. Whole-segment ** is rewritten so it also matches zero segments.
type GobwasEngine struct{}

// Name returns "gobwas"
func (GobwasEngine) Name() string {
	return "gobwas"
}

// Compile compiles pattern into a Pattern
func (GobwasEngine) Compile(pattern string) (Pattern, error) {
	return compile(pattern, func(expanded string) ([]matcher, error) {
		variants := globstarVariants(expanded)
		ms := make([]matcher, 0, len(variants))
		for _, v := range variants {
			g, err := glob.Compile(negatedClasses(escapeBraces(v)), Separator)
			if err != nil {
				return nil, err
			}
			ms = append(ms, g)
		}
		return ms, nil
	})
}

// negatedClasses rewrites unescaped "[^" to "[!", the only class negation
// gobwas understands
func negatedClasses(s string) string {
	if !strings.Contains(s, "[^") {
		return s
	}

	b := []byte(s)
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '[':
			if i+1 < len(b) && b[i+1] == '^' {
				b[i+1] = '!'
			}
		}
	}
	return string(b)
}
