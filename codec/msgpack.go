package codec

import (
	"bytes"
	"fmt"

	"github.com/maxpert/pathglob/subscription"
	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack peeks at msgpack-encoded maps
type Msgpack struct{}

// Name returns "msgpack"
func (Msgpack) Name() string {
	return "msgpack"
}

// Peek decodes only the "event" and "path" keys of a msgpack map
func (Msgpack) Peek(data []byte) (subscription.Event, error) {
	var fields struct {
		Event any `msgpack:"event"`
		Path  any `msgpack:"path"`
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&fields); err != nil {
		return subscription.Event{}, fmt.Errorf("failed to decode msgpack record: %w", err)
	}

	return subscription.Event{
		Type: subscription.Coerce(fields.Event),
		Path: subscription.Coerce(fields.Path),
	}, nil
}
