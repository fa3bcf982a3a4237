package codec

import (
	"fmt"
	"strings"

	"github.com/maxpert/pathglob/subscription"
)

// DefaultCodec is used when no codec is configured
const DefaultCodec = "json"

// Codec reads the event and path of an encoded record without decoding the
// rest of it. Forwarded payloads are never re-encoded.
type Codec interface {
	Name() string
	Peek(data []byte) (subscription.Event, error)
}

// Lookup returns the codec for name ("json" or "msgpack")
func Lookup(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", DefaultCodec:
		return JSON{}, nil
	case "msgpack":
		return Msgpack{}, nil
	}
	return nil, fmt.Errorf("unknown codec: %s", name)
}

// New returns the codec for name wrapped for compression ("", "none" or "zstd")
func New(name, compression string) (Codec, error) {
	c, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return WithCompression(c, compression)
}
