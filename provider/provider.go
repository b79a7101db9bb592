// Package provider defines the byte stores that back store/kv.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. store/kv frames
// every value with its own header and treats anything else as corruption.
//
// The keyspace under the configured KeyPrefix ("resized/" by default) is owned
// by resizecache. Foreign writes there are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Exists reports whether key is present without copying the value out
	// where the backend allows it.
	Exists(ctx context.Context, key string) (bool, error)

	// Set stores value with the given TTL (<=0 means no expiry). May ignore
	// cost if unsupported. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
