package subscription_test

import (
	"fmt"
	"log"

	"github.com/maxpert/pathglob/subscription"
)

func ExampleCompile() {
	table, err := subscription.Compile(map[string]any{
		"request": "/allow/*",
		"response": map[string]any{
			"include": "/api/**",
			"exclude": "/api/internal/**",
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	items := []subscription.Event{
		{Type: "request", Path: "/allow/me"},
		{Type: "request", Path: "/do/not/allow/me"},
		{Type: "response", Path: "/api/users/42"},
		{Type: "response", Path: "/api/internal/metrics"},
		{Type: "error", Path: "/api/users"},
	}

	for _, item := range items {
		d := table.Evaluate(item)
		fmt.Printf("%s %s: %v (%s)\n", item.Type, item.Path, d.Forward, d.Reason)
	}

	// Output:
	// request /allow/me: true (included)
	// request /do/not/allow/me: false (not_included)
	// response /api/users/42: true (included)
	// response /api/internal/metrics: false (excluded)
	// error /api/users: false (unsubscribed)
}

func ExampleParseSpec() {
	for _, v := range []any{"*", "/a/*", []any{"/a", 1}, map[string]any{"exclude": "/secret"}} {
		include, exclude := subscription.Normalize(subscription.ParseSpec(v))
		fmt.Printf("%q %q\n", include, exclude)
	}

	// Output:
	// [] []
	// ["/a/*"] []
	// ["/a" "1"] []
	// [] ["/secret"]
}
