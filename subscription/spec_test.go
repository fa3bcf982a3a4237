package subscription

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  FilterSpec
	}{
		{"wildcard marker", "*", Wildcard{}},
		{"nil", nil, Wildcard{}},
		{"false", false, Wildcard{}},
		{"zero", 0, Wildcard{}},
		{"empty string", "", Wildcard{}},
		{"string", "/a", Patterns{"/a"}},
		{"number", 5, Patterns{"5"}},
		{"list", []any{"/a", 2}, Patterns{"/a", "2"}},
		{"empty list", []string{}, Patterns{}},
		{"star in list", []string{"*"}, Patterns{"*"}},
		{"structured", map[string]any{"include": "/a", "exclude": []string{"/b"}},
			Structured{Include: []string{"/a"}, Exclude: []string{"/b"}}},
		{"structured exclude only", map[string]any{"exclude": "/b"},
			Structured{Include: []string{}, Exclude: []string{"/b"}}},
		{"map without sides", map[string]any{"includes": "/a"}, Patterns{"map[includes:/a]"}},
		{"map with falsy sides", map[string]any{"include": nil, "exclude": ""}, Patterns{"map[exclude: include:<nil>]"}},
		{"structured empty list", map[string]any{"include": []any{}}, Structured{Include: []string{}, Exclude: []string{}}},
		{"typed", Structured{Include: []string{"/t"}}, Structured{Include: []string{"/t"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSpec(tt.value))
		})
	}
}

func TestNormalize(t *testing.T) {
	include, exclude := Normalize(Wildcard{})
	assert.Equal(t, []string{}, include)
	assert.Equal(t, []string{}, exclude)

	include, exclude = Normalize(Patterns{"/a"})
	assert.Equal(t, []string{"/a"}, include)
	assert.Equal(t, []string{}, exclude)

	include, exclude = Normalize(Structured{Exclude: []string{"/b"}})
	assert.Equal(t, []string{}, include)
	assert.Equal(t, []string{"/b"}, exclude)
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{nil, false, 0, int8(0), uint(0), 0.0, math.NaN(), ""} {
		assert.False(t, Truthy(v), "%#v", v)
	}
	for _, v := range []any{true, 1, -1, 0.5, "x", []string{}, map[string]any{}} {
		assert.True(t, Truthy(v), "%#v", v)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "null", Stringify(nil))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "12", Stringify(12))
	assert.Equal(t, "12", Stringify(uint16(12)))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "3", Stringify(3.0))
	assert.Equal(t, "a,,1", Stringify([]any{"a", nil, 1}))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, "", Coerce(nil))
	assert.Equal(t, "", Coerce(false))
	assert.Equal(t, "", Coerce(0))
	assert.Equal(t, "/a", Coerce("/a"))
	assert.Equal(t, "7", Coerce(7))
}
