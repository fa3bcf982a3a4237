// Package glob compiles path glob patterns behind pluggable engines.
//
// Patterns use '/' as the separator: '*' and '?' stay within one segment,
// '**' spans segments, and braces are expanded before compilation. A
// leading dot is an ordinary character, so "/a/*" matches "/a/.hidden" and
// "/a/**" matches "/a/.git/config". minimatch and shell globs skip such
// dotfiles unless asked to.
package glob

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Pattern is a compiled glob pattern
type Pattern interface {
	// Match reports whether text matches the whole pattern
	Match(text string) bool
	// String returns the pattern source as it was configured
	String() string
}

// Engine compiles glob patterns into Patterns
type Engine interface {
	// Name identifies the engine in configuration
	Name() string
	// Compile compiles a pattern source, including brace expansion
	Compile(pattern string) (Pattern, error)
}

// DefaultEngine is the engine used when none is configured
const DefaultEngine = "gobwas"

var (
	engines   = make(map[string]Engine)
	enginesMu sync.RWMutex
)

// Register registers an engine under its name, replacing any previous one
func Register(engine Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[engine.Name()] = engine
}

// Lookup returns the engine registered under name
// An empty name returns the default engine
func Lookup(name string) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}

	enginesMu.RLock()
	engine, exists := engines[strings.ToLower(name)]
	enginesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown glob engine: %s", name)
	}
	return engine, nil
}

// Default returns the default engine
func Default() Engine {
	engine, err := Lookup(DefaultEngine)
	if err != nil {
		panic(err)
	}
	return engine
}

// Engines returns the names of all registered engines, sorted
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match compiles pattern with the default engine and matches it against text.
// Patterns that fail to compile are matched literally.
func Match(pattern, text string) bool {
	p, err := Default().Compile(pattern)
	if err != nil {
		return pattern == text
	}
	return p.Match(text)
}

// matcher is satisfied by every engine-specific compiled alternative
type matcher interface {
	Match(string) bool
}

// compiled is an expanded pattern: the source matches when any alternative does
type compiled struct {
	source string
	negate bool
	alts   []matcher
}

func (c *compiled) Match(text string) bool {
	for _, m := range c.alts {
		if m.Match(text) {
			return !c.negate
		}
	}
	return c.negate
}

func (c *compiled) String() string {
	return c.source
}

// compile splits off negation, expands braces and builds one or more
// matchers per expansion through build
func compile(source string, build func(expanded string) ([]matcher, error)) (Pattern, error) {
	body, negate := splitNegation(source)

	expanded, err := Expand(body)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", source, err)
	}

	p := &compiled{
		source: source,
		negate: negate,
		alts:   make([]matcher, 0, len(expanded)),
	}
	for _, e := range expanded {
		ms, err := build(e)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", source, err)
		}
		p.alts = append(p.alts, ms...)
	}

	return p, nil
}

// splitNegation strips leading '!' characters; an odd count negates
func splitNegation(pattern string) (string, bool) {
	n := 0
	for n < len(pattern) && pattern[n] == '!' {
		n++
	}
	return pattern[n:], n%2 == 1
}

type literal string

// Literal returns a Pattern that matches only the exact text
func Literal(text string) Pattern {
	return literal(text)
}

func (l literal) Match(text string) bool {
	return string(l) == text
}

func (l literal) String() string {
	return string(l)
}
