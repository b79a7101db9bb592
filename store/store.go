// Package store defines the object stores resizecache talks to.
//
// Two roles exist:
//   - Origin: read-only source of original images, keyed by path.
//   - Cache: blob store holding resized renditions under derived keys.
//
// A single backend may play both roles (see store/s3). Implementations must be
// safe for concurrent use. Neither role promises read-after-check atomicity:
// an Exists that returned true may be followed by a Get that reports
// ErrNotFound when another writer or the store's own lifecycle rules removed
// the entry in between.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrRejected is returned by Put when the backend refused the write
	// (capacity pressure, oversized entry). Nothing was stored.
	ErrRejected = errors.New("store: write rejected")
)

// Object is a blob plus the metadata served with it.
type Object struct {
	Data         []byte
	ContentType  string
	CacheControl string
}

// Meta is the metadata half of an Object.
type Meta struct {
	ContentType  string `json:"ct" msgpack:"ct" cbor:"1,keyasint"`
	CacheControl string `json:"cc,omitempty" msgpack:"cc,omitempty" cbor:"2,keyasint,omitempty"`
}

func (o Object) Meta() Meta {
	return Meta{ContentType: o.ContentType, CacheControl: o.CacheControl}
}

// Origin retrieves original images.
type Origin interface {
	// Get returns ErrNotFound when path does not exist.
	Get(ctx context.Context, path string) (Object, error)
}

// Cache stores resized renditions.
type Cache interface {
	// Exists is a metadata-only probe; it must not transfer the payload.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns ErrNotFound when key does not exist.
	Get(ctx context.Context, key string) (Object, error)

	// Put stores obj under key in a single write. Partial entries must never
	// become visible.
	Put(ctx context.Context, key string, obj Object) error
}

// Closer is implemented by stores that own resources.
type Closer interface {
	Close(ctx context.Context) error
}
