package codec

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/maxpert/pathglob/subscription"
)

// WithCompression wraps c so payloads are decompressed before peeking.
// Supported: "" and "none" (no wrapping), "zstd".
func WithCompression(c Codec, compression string) (Codec, error) {
	switch strings.ToLower(compression) {
	case "", "none":
		return c, nil
	case "zstd":
		// DecodeAll is safe for concurrent use on a shared decoder
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return &zstdCodec{inner: c, decoder: decoder}, nil
	}
	return nil, fmt.Errorf("unknown compression: %s", compression)
}

type zstdCodec struct {
	inner   Codec
	decoder *zstd.Decoder
}

func (z *zstdCodec) Name() string {
	return z.inner.Name() + "+zstd"
}

func (z *zstdCodec) Peek(data []byte) (subscription.Event, error) {
	raw, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return subscription.Event{}, fmt.Errorf("failed to decompress record: %w", err)
	}
	return z.inner.Peek(raw)
}
