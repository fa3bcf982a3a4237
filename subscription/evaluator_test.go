package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, events any) *Table {
	t.Helper()
	table, err := Compile(events)
	require.NoError(t, err)
	return table
}

func TestShouldForwardUnsubscribedEvent(t *testing.T) {
	table := mustCompile(t, map[string]any{"request": "*"})

	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "p"}))
	assert.Equal(t, ReasonUnsubscribed, table.Evaluate(Event{Type: "response", Path: "p"}).Reason)
}

func TestShouldForwardWildcard(t *testing.T) {
	table := mustCompile(t, map[string]any{"request": "*"})

	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "any/path"}))
	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "another/path"}))
	assert.Equal(t, ReasonUnrestricted, table.Evaluate(Event{Type: "request", Path: "x"}).Reason)
}

func TestShouldForwardEventCaseInsensitive(t *testing.T) {
	table := mustCompile(t, map[string]any{"Request": "/a"})

	assert.True(t, ShouldForward(table, Event{Type: "REQUEST", Path: "/a"}))
	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "/a"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/A"}))
}

func TestShouldForwardIncludeGlobstar(t *testing.T) {
	table := mustCompile(t, map[string]any{
		"response": map[string]any{"include": []string{"/accept/**/true"}},
	})

	for _, path := range []string{"/accept/true", "/accept/me/true", "/accept/me/so/true"} {
		assert.True(t, ShouldForward(table, Event{Type: "response", Path: path}), path)
	}
	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "/accept/me"}))

	d := table.Evaluate(Event{Type: "response", Path: "/accept/me"})
	assert.Equal(t, ReasonNotIncluded, d.Reason)
}

func TestShouldForwardExcludeGlobstar(t *testing.T) {
	table := mustCompile(t, map[string]any{
		"response": map[string]any{"exclude": []string{"/disallow/**/false"}},
	})

	assert.True(t, ShouldForward(table, Event{Type: "response", Path: "/allow/me/true"}))
	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "/disallow/me/false"}))
	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "/disallow/false"}))

	d := table.Evaluate(Event{Type: "response", Path: "/disallow/false"})
	assert.Equal(t, Decision{Forward: false, Reason: ReasonExcluded, Pattern: "/disallow/**/false"}, d)
}

func TestShouldForwardBraceRange(t *testing.T) {
	table := mustCompile(t, map[string]any{"response": []string{"/accept/{1..3}/true"}})

	for _, path := range []string{"/accept/1/true", "/accept/2/true", "/accept/3/true"} {
		assert.True(t, ShouldForward(table, Event{Type: "response", Path: path}), path)
	}
	assert.False(t, ShouldForward(table, Event{Type: "response", Path: "/accept/4/true"}))
}

func TestShouldForwardMissingPath(t *testing.T) {
	table := mustCompile(t, map[string]any{"request": "hapi"})

	assert.True(t, ShouldForward(table, Event{Type: "request"}))
	assert.Equal(t, ReasonNoPath, table.Evaluate(Event{Type: "request"}).Reason)

	// Still dropped when the event itself is not subscribed
	assert.False(t, ShouldForward(table, Event{Type: "response"}))
}

func TestShouldForwardExcludeWinsOverInclude(t *testing.T) {
	table := mustCompile(t, map[string]any{
		"request": map[string]any{
			"include": "/api/**",
			"exclude": "/api/internal/**",
		},
	})

	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "/api/users"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/api/internal/metrics"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/web/index"}))

	d := table.Evaluate(Event{Type: "request", Path: "/api/users"})
	assert.Equal(t, Decision{Forward: true, Reason: ReasonIncluded, Pattern: "/api/**"}, d)
}

func TestShouldForwardAnchored(t *testing.T) {
	table := mustCompile(t, map[string]any{"request": "/allow/*"})

	assert.True(t, ShouldForward(table, Event{Type: "request", Path: "/allow/me"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/do/not/allow/me"}))
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/allow/me/too"}))
}

func TestShouldForwardNilTable(t *testing.T) {
	var table *Table
	assert.False(t, ShouldForward(table, Event{Type: "request", Path: "/a"}))
}

func TestShouldForwardRepeatable(t *testing.T) {
	table := mustCompile(t, map[string]any{"request": []string{"/a/**", "/b/?"}})
	item := Event{Type: "request", Path: "/a/x/y"}

	first := table.Evaluate(item)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, table.Evaluate(item))
	}
}

func TestRuleUnrestricted(t *testing.T) {
	table := mustCompile(t, map[string]any{"a": "*", "b": "/x"})

	a, _ := table.Lookup("a")
	b, _ := table.Lookup("b")
	assert.True(t, a.Unrestricted())
	assert.False(t, b.Unrestricted())
}
