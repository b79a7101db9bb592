package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is the default metadata encoding for store/kv. A store.Meta block
// is two short strings, so the frame stays well under the decode limit.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(meta V) ([]byte, error) {
	b, err := msgpack.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("codec: msgpack encode: %w", err)
	}
	return b, nil
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var meta V
	if err := msgpack.Unmarshal(b, &meta); err != nil {
		return meta, fmt.Errorf("codec: msgpack decode: %w", err)
	}
	return meta, nil
}
