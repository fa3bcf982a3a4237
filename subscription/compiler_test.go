package subscription

import (
	"errors"
	"testing"

	"github.com/maxpert/pathglob/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func empty() Structured {
	return Structured{Include: []string{}, Exclude: []string{}}
}

func compileRule(t *testing.T, spec any) Structured {
	t.Helper()
	table, err := Compile(map[string]any{"e": spec})
	require.NoError(t, err)

	rule, ok := table.Lookup("e")
	require.True(t, ok)
	return rule.Spec()
}

func TestCompileWildcardAndFalsy(t *testing.T) {
	// *, nil, false and 0 all mean every path is acceptable
	for _, spec := range []any{"*", nil, false, 0, "", 0.0} {
		assert.Equal(t, empty(), compileRule(t, spec), "spec %#v", spec)
	}
}

func TestCompileSingleString(t *testing.T) {
	assert.Equal(t, Structured{Include: []string{"foo"}, Exclude: []string{}}, compileRule(t, "foo"))
}

func TestCompileArray(t *testing.T) {
	assert.Equal(t,
		Structured{Include: []string{"a.x", "a.y"}, Exclude: []string{}},
		compileRule(t, []any{"a.x", "a.y"}))

	assert.Equal(t,
		Structured{Include: []string{"*.hapi", "*.error"}, Exclude: []string{}},
		compileRule(t, []string{"*.hapi", "*.error"}))
}

func TestCompileEmptyArray(t *testing.T) {
	assert.Equal(t, empty(), compileRule(t, []string{}))
}

func TestCompileExcludeOnly(t *testing.T) {
	assert.Equal(t,
		Structured{Include: []string{}, Exclude: []string{"secret"}},
		compileRule(t, map[string]any{"exclude": []any{"secret"}}))
}

func TestCompileIncludeAndExclude(t *testing.T) {
	got := compileRule(t, map[string]any{
		"include": "/api/**",
		"exclude": []string{"/api/internal/**", "/api/health"},
	})
	assert.Equal(t, Structured{
		Include: []string{"/api/**"},
		Exclude: []string{"/api/internal/**", "/api/health"},
	}, got)
}

func TestCompileStructuredWildcardSides(t *testing.T) {
	assert.Equal(t, empty(), compileRule(t, map[string]any{"include": "*", "exclude": nil}))
}

func TestCompileCoercesNonStrings(t *testing.T) {
	got := compileRule(t, []any{1, true, 2.5, nil, []any{"a", "b"}})
	assert.Equal(t, []string{"1", "true", "2.5", "null", "a,b"}, got.Include)

	assert.Equal(t, []string{"42"}, compileRule(t, 42).Include)
	assert.Equal(t, []string{"true"}, compileRule(t, true).Include)
	assert.Equal(t, []string{"7"}, compileRule(t, int64(7)).Include)
}

func TestCompileTypedSpecs(t *testing.T) {
	table, err := Compile(map[string]FilterSpec{
		"a": Wildcard{},
		"b": Patterns{"/x"},
		"c": Structured{Exclude: []string{"/y"}},
	})
	require.NoError(t, err)

	specs := table.Specs()
	assert.Equal(t, empty(), specs["a"])
	assert.Equal(t, Structured{Include: []string{"/x"}, Exclude: []string{}}, specs["b"])
	assert.Equal(t, Structured{Include: []string{}, Exclude: []string{"/y"}}, specs["c"])
}

func TestCompileStringMaps(t *testing.T) {
	table, err := Compile(map[string]string{"request": "/allow/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"request"}, table.Events())

	table, err = Compile(map[string][]string{"request": {"/a", "/b"}})
	require.NoError(t, err)
	rule, ok := table.Lookup("request")
	require.True(t, ok)
	assert.Equal(t, []string{"/a", "/b"}, rule.Include.Strings())
}

func TestCompileLowercasesKeys(t *testing.T) {
	table, err := Compile(map[string]any{"Request": "*", "RESPONSE": "/a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"request", "response"}, table.Events())

	_, ok := table.Lookup("request")
	assert.True(t, ok)
	_, ok = table.Lookup("Response")
	assert.True(t, ok)
}

func TestCompileEveryKeyYieldsEntry(t *testing.T) {
	config := map[string]any{"a": "*", "b": nil, "c": "/x", "d": map[string]any{}}
	table, err := Compile(config)
	require.NoError(t, err)
	assert.Equal(t, len(config), table.Len())
}

func TestCompileMistypedMapFailsClosed(t *testing.T) {
	table, err := Compile(map[string]any{
		"request":  map[string]any{"includes": "/only/this"},
		"response": map[string]any{"include": nil, "exclude": ""},
	})
	require.NoError(t, err)

	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/anything/else"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/only/this"}))
	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "/anything/else"}))
	// Items without a path still pass once the event is subscribed
	assert.True(t, ShouldForward(table, Event{Type: "request"}))
}

func TestCompileNilAndFalsy(t *testing.T) {
	for _, events := range []any{nil, false, 0, "", map[string]any(nil)} {
		table, err := Compile(events)
		require.NoError(t, err, "events %#v", events)
		assert.Equal(t, 0, table.Len())
	}
}

func TestCompileInvalidConfiguration(t *testing.T) {
	for _, events := range []any{"request", 42, true, []string{"a"}, map[int]string{1: "a"}} {
		table, err := Compile(events)
		require.Error(t, err, "events %#v", events)
		assert.Nil(t, table)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
		assert.Equal(t, "events must be an object", err.Error())
	}
}

func TestCompileIdempotent(t *testing.T) {
	config := map[string]any{
		"request":  []string{"/a/**", "/b/{1..3}"},
		"response": map[string]any{"include": "/x", "exclude": "/x/y"},
	}

	first, err := Compile(config)
	require.NoError(t, err)
	second, err := Compile(config)
	require.NoError(t, err)

	assert.Equal(t, first.Specs(), second.Specs())
}

type rejectingEngine struct{}

func (rejectingEngine) Name() string { return "rejecting" }

func (rejectingEngine) Compile(pattern string) (glob.Pattern, error) {
	if pattern == "[bad" {
		return nil, errors.New("unterminated class")
	}
	return glob.Default().Compile(pattern)
}

func TestCompileInvalidPatternFallsBackToLiteral(t *testing.T) {
	table, err := NewCompiler(rejectingEngine{}).Compile(map[string]any{"request": []string{"[bad", "/ok/*"}})
	require.NoError(t, err)

	rule, ok := table.Lookup("request")
	require.True(t, ok)
	assert.Equal(t, []string{"[bad", "/ok/*"}, rule.Include.Strings())

	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "[bad"}))
	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "/ok/1"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "b"}))
}

func TestCompileWithDoublestar(t *testing.T) {
	engine, err := glob.Lookup("doublestar")
	require.NoError(t, err)

	table, err := NewCompiler(engine).Compile(map[string]any{"response": []string{"/accept/{1..3}/true"}})
	require.NoError(t, err)

	assert.True(t, ShouldForward(table, Event{Type: "response", Path: "/accept/2/true"}))
	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "/accept/4/true"}))
}
