package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes metadata with fxamacker/cbor. Build it with NewCBOR; the zero
// value has no modes and panics on use.
//
// With deterministic set, two replicas writing the same rendition store
// identical metadata bytes (RFC 8949 core deterministic encoding).
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	opts := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		opts = cbor.CoreDetEncOptions()
	}
	enc, err := opts.EncMode()
	if err != nil {
		return CBOR[V]{}, fmt.Errorf("codec: cbor enc mode: %w", err)
	}
	// Metadata is a flat struct; anything nested deeper is not ours.
	dec, err := cbor.DecOptions{MaxNestedLevels: 4}.DecMode()
	if err != nil {
		return CBOR[V]{}, fmt.Errorf("codec: cbor dec mode: %w", err)
	}
	return CBOR[V]{enc: enc, dec: dec}, nil
}

func (c CBOR[V]) Encode(meta V) ([]byte, error) {
	b, err := c.enc.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("codec: cbor encode: %w", err)
	}
	return b, nil
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var meta V
	if err := c.dec.Unmarshal(b, &meta); err != nil {
		return meta, fmt.Errorf("codec: cbor decode: %w", err)
	}
	return meta, nil
}
