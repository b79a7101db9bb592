// Package codec serializes the metadata block that store/kv frames next to
// each cached rendition.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// ByName resolves a codec from configuration. Names: "msgpack" (default for
// ""), "cbor", "json".
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", "msgpack":
		return Msgpack[V]{}, nil
	case "cbor":
		return NewCBOR[V](true)
	case "json":
		return JSON[V]{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
