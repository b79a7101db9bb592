// Package kv adapts a byte provider (Redis, Ristretto, BigCache) into a
// store.Cache by framing each rendition with its metadata.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/resizecache/codec"
	"github.com/unkn0wn-root/resizecache/internal/wire"
	pr "github.com/unkn0wn-root/resizecache/provider"
	"github.com/unkn0wn-root/resizecache/store"
)

const defaultMaxMeta = 4 << 10

// CostFunc returns the admission cost of a framed entry. Only cost-aware
// providers (Ristretto) look at it.
type CostFunc func(key string, entry []byte) int64

type Options struct {
	// Required
	Provider pr.Provider

	Codec        codec.Codec[store.Meta] // nil => msgpack, decode capped at 4KiB
	TTL          time.Duration           // 0 => no expiry (provider permitting)
	MaxEntrySize int                     // framed bytes; 0 => unlimited
	Cost         CostFunc                // nil => len(entry)

	// OnSelfHeal is called after a corrupt entry was deleted on read.
	// reason ∈ {"frame", "meta"}. Must be cheap.
	OnSelfHeal func(key, reason string)
}

// Store is safe for concurrent use when its provider is.
type Store struct {
	p          pr.Provider
	codec      codec.Codec[store.Meta]
	ttl        time.Duration
	maxEntry   int
	cost       CostFunc
	onSelfHeal func(key, reason string)
}

var (
	_ store.Cache  = (*Store)(nil)
	_ store.Closer = (*Store)(nil)
)

func New(opts Options) (*Store, error) {
	if opts.Provider == nil {
		return nil, errors.New("kv: provider is required")
	}
	s := &Store{
		p:          opts.Provider,
		codec:      opts.Codec,
		ttl:        opts.TTL,
		maxEntry:   opts.MaxEntrySize,
		cost:       opts.Cost,
		onSelfHeal: opts.OnSelfHeal,
	}
	if s.codec == nil {
		s.codec = codec.Limit[store.Meta]{Inner: codec.Msgpack[store.Meta]{}, MaxDecode: defaultMaxMeta}
	}
	if s.cost == nil {
		s.cost = func(_ string, entry []byte) int64 { return int64(len(entry)) }
	}
	if s.onSelfHeal == nil {
		s.onSelfHeal = func(string, string) {}
	}
	return s, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.p.Exists(ctx, key)
}

func (s *Store) Get(ctx context.Context, key string) (store.Object, error) {
	raw, ok, err := s.p.Get(ctx, key)
	if err != nil {
		return store.Object{}, err
	}
	if !ok {
		return store.Object{}, store.ErrNotFound
	}
	metaRaw, data, err := wire.DecodeEntry(raw)
	if err != nil {
		s.heal(ctx, key, "frame")
		return store.Object{}, store.ErrNotFound
	}
	meta, err := s.codec.Decode(metaRaw)
	if err != nil || meta.ContentType == "" {
		s.heal(ctx, key, "meta")
		return store.Object{}, store.ErrNotFound
	}
	return store.Object{
		Data:         data,
		ContentType:  meta.ContentType,
		CacheControl: meta.CacheControl,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, obj store.Object) error {
	metaRaw, err := s.codec.Encode(obj.Meta())
	if err != nil {
		return fmt.Errorf("kv: encode meta: %w", err)
	}
	entry, err := wire.EncodeEntry(metaRaw, obj.Data)
	if err != nil {
		return fmt.Errorf("kv: frame entry: %w", err)
	}
	if s.maxEntry > 0 && len(entry) > s.maxEntry {
		return fmt.Errorf("%w: entry %d bytes exceeds %d", store.ErrRejected, len(entry), s.maxEntry)
	}
	ok, err := s.p.Set(ctx, key, entry, s.cost(key, entry), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrRejected
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.p.Close(ctx)
}

func (s *Store) heal(ctx context.Context, key, reason string) {
	_ = s.p.Del(ctx, key)
	s.onSelfHeal(key, reason)
}
