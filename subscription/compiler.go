package subscription

import (
	"errors"
	"sort"
	"strings"

	"github.com/maxpert/pathglob/glob"
	"github.com/rs/zerolog/log"
)

// ErrInvalidConfiguration is returned when the events configuration is not
// an object
var ErrInvalidConfiguration = errors.New("events must be an object")

// Compiler builds subscription tables with a glob engine
type Compiler struct {
	engine glob.Engine
}

// NewCompiler creates a compiler for engine, or the default engine if nil
func NewCompiler(engine glob.Engine) *Compiler {
	if engine == nil {
		engine = glob.Default()
	}
	return &Compiler{engine: engine}
}

// Compile builds a Table from the default engine. See Compiler.Compile.
func Compile(events any) (*Table, error) {
	return NewCompiler(nil).Compile(events)
}

// Compile builds a Table from a mapping of event name to filter value.
// Any map with string keys is accepted; a nil or falsy argument yields an
// empty table. Every key produces exactly one rule under its lowercase name.
func (c *Compiler) Compile(events any) (*Table, error) {
	table := &Table{rules: make(map[string]Rule)}
	if !Truthy(events) {
		return table, nil
	}

	config, ok := asObject(events)
	if !ok {
		return nil, ErrInvalidConfiguration
	}

	// Sorted so keys differing only in case resolve deterministically
	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		include, exclude := Normalize(ParseSpec(config[key]))
		event := strings.ToLower(key)

		table.rules[event] = Rule{
			Include: c.compileList(event, include),
			Exclude: c.compileList(event, exclude),
		}

		log.Debug().
			Str("event", event).
			Strs("include", include).
			Strs("exclude", exclude).
			Msg("Compiled subscription")
	}

	return table, nil
}

// compileList compiles sources in order. Patterns the engine rejects are
// matched literally.
func (c *Compiler) compileList(event string, sources []string) PatternList {
	list := make(PatternList, 0, len(sources))
	for _, source := range sources {
		p, err := c.engine.Compile(source)
		if err != nil {
			log.Warn().
				Err(err).
				Str("event", event).
				Str("pattern", source).
				Str("engine", c.engine.Name()).
				Msg("Invalid glob pattern, matching literally")
			p = glob.Literal(source)
		}
		list = append(list, p)
	}
	return list
}
