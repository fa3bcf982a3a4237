package codec

import (
	"errors"

	"github.com/maxpert/pathglob/subscription"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned for payloads that are not a JSON object
var ErrInvalidJSON = errors.New("payload is not a JSON object")

// JSON peeks at JSON objects with gjson
type JSON struct{}

// Name returns "json"
func (JSON) Name() string {
	return "json"
}

// Peek reads the "event" and "path" members of a JSON object
func (JSON) Peek(data []byte) (subscription.Event, error) {
	if !gjson.ValidBytes(data) {
		return subscription.Event{}, ErrInvalidJSON
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return subscription.Event{}, ErrInvalidJSON
	}

	return subscription.Event{
		Type: subscription.Coerce(root.Get("event").Value()),
		Path: subscription.Coerce(root.Get("path").Value()),
	}, nil
}
