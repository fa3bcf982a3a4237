package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchCase struct {
	pattern string
	text    string
	want    bool
}

// Cases every engine must agree on
var engineCases = []matchCase{
	// Exact and anchored
	{"hapi", "hapi", true},
	{"hapi", "hapi.js", false},
	{"hapi", "my-hapi", false},
	{"Hapi", "hapi", false},

	// Single star stays within a segment
	{"/allow/*", "/allow/me", true},
	{"/allow/*", "/do/not/allow/me", false},
	{"/allow/*", "/allow/me/too", false},
	{"*.hapi", "request.hapi", true},
	{"*.hapi", "a/request.hapi", false},

	// Question mark and classes
	{"/v?/users", "/v1/users", true},
	{"/v?/users", "/v10/users", false},
	{"/v[0-9]/users", "/v2/users", true},
	{"/v[!0-9]/users", "/vx/users", true},
	{"/v[!0-9]/users", "/v2/users", false},
	{"/v[^0-9]/users", "/vx/users", true},
	{"/v[^0-9]/users", "/v2/users", false},
	{"/a/[^x]", "/a/b", true},
	{"/a/[^x]", "/a/x", false},

	// Globstar
	{"/accept/**/true", "/accept/true", true},
	{"/accept/**/true", "/accept/me/true", true},
	{"/accept/**/true", "/accept/me/so/true", true},
	{"/accept/**/true", "/accept/me", false},
	{"/disallow/**/false", "/disallow/false", true},
	{"/disallow/**/false", "/disallow/me/false", true},
	{"/disallow/**/false", "/allow/me/true", false},
	{"**/secret", "a/b/secret", true},
	{"**/secret", "secret", true},

	// Leading dots are ordinary characters
	{"/a/*", "/a/.hidden", true},
	{"/a/**", "/a/.git/config", true},
	{"*.env", ".env", true},

	// Braces
	{"/accept/{1..3}/true", "/accept/1/true", true},
	{"/accept/{1..3}/true", "/accept/2/true", true},
	{"/accept/{1..3}/true", "/accept/3/true", true},
	{"/accept/{1..3}/true", "/accept/4/true", false},
	{"/{users,orders}/*", "/orders/1", true},
	{"/{users,orders}/*", "/items/1", false},
	{"/page/{01..03}", "/page/02", true},
	{"/page/{01..03}", "/page/2", false},
	{"/lit/{x}", "/lit/{x}", true},
	{"/lit/{x}", "/lit/x", false},

	// Negation
	{"!secret", "public", true},
	{"!secret", "secret", false},
	{"!!secret", "secret", true},
}

func TestEngines(t *testing.T) {
	for _, name := range []string{"gobwas", "doublestar"} {
		engine, err := Lookup(name)
		require.NoError(t, err)

		t.Run(name, func(t *testing.T) {
			for _, tc := range engineCases {
				p, err := engine.Compile(tc.pattern)
				require.NoError(t, err, "pattern %q", tc.pattern)
				assert.Equal(t, tc.want, p.Match(tc.text), "%s: %q against %q", name, tc.pattern, tc.text)
				assert.Equal(t, tc.pattern, p.String())
			}
		})
	}
}

func TestNegatedClasses(t *testing.T) {
	assert.Equal(t, "/a/[!x]", negatedClasses("/a/[^x]"))
	assert.Equal(t, "[!a][!b]", negatedClasses("[^a][^b]"))
	assert.Equal(t, `/a/\[^x]`, negatedClasses(`/a/\[^x]`))
	assert.Equal(t, "/a/[x^]", negatedClasses("/a/[x^]"))
	assert.Equal(t, "plain", negatedClasses("plain"))
}

func TestGobwasTrailingGlobstar(t *testing.T) {
	p, err := GobwasEngine{}.Compile("/logs/**")
	require.NoError(t, err)

	assert.True(t, p.Match("/logs"))
	assert.True(t, p.Match("/logs/a"))
	assert.True(t, p.Match("/logs/a/b/c"))
	assert.False(t, p.Match("/log"))
}

func TestCompileTooManyExpansions(t *testing.T) {
	_, err := GobwasEngine{}.Compile("{1..100}{1..100}")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	engine, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEngine, engine.Name())

	engine, err = Lookup("DoubleStar")
	require.NoError(t, err)
	assert.Equal(t, "doublestar", engine.Name())

	_, err = Lookup("regex")
	assert.Error(t, err)
}

func TestEngines_Registered(t *testing.T) {
	names := Engines()
	assert.Contains(t, names, "gobwas")
	assert.Contains(t, names, "doublestar")
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("/a/**/b", "/a/b"))
	assert.True(t, Match("/a/{1..2}", "/a/2"))
	assert.False(t, Match("/a/*", "/a/b/c"))
}

func TestLiteral(t *testing.T) {
	p := Literal("[abc")
	assert.True(t, p.Match("[abc"))
	assert.False(t, p.Match("a"))
	assert.Equal(t, "[abc", p.String())
}
