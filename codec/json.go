package codec

import (
	"encoding/json"
	"fmt"
)

// JSON keeps the metadata frame readable from redis-cli or a memcached dump.
type JSON[V any] struct{}

func (JSON[V]) Encode(meta V) ([]byte, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("codec: json encode: %w", err)
	}
	return b, nil
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var meta V
	if err := json.Unmarshal(b, &meta); err != nil {
		return meta, fmt.Errorf("codec: json decode: %w", err)
	}
	return meta, nil
}
