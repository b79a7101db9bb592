package resizecache

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/resizecache/store"
	"github.com/unkn0wn-root/resizecache/transform"
)

// Transformer turns an original image into a rendition. *transform.Engine
// implements it.
type Transformer interface {
	Transform(ctx context.Context, data []byte, opts transform.Options) (transform.Result, error)
}

type Options struct {
	// Required
	Origin store.Origin
	Cache  store.Cache

	// Optional
	Engine             Transformer // nil => transform.New(transform.Config{})
	Logger             Logger      // nil => NopLogger
	Hooks              Hooks       // nil => NopHooks
	MaxDimension       int         // 0 => 4000
	CacheControl       string      // "" => "public, max-age=31536000"
	DefaultContentType string      // "" => "image/jpeg"; served for entries stored without one
}

// New validates opts and fills defaults. The returned Resizer is safe for
// concurrent use.
func New(opts Options) (*Resizer, error) {
	if opts.Origin == nil {
		return nil, errors.New("resizecache: Origin is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("resizecache: Cache is required")
	}
	if opts.MaxDimension < 0 {
		return nil, fmt.Errorf("resizecache: MaxDimension must be >= 0, got %d", opts.MaxDimension)
	}
	engine := opts.Engine
	if engine == nil {
		e, err := transform.New(transform.Config{})
		if err != nil {
			return nil, err
		}
		engine = e
	}

	return &Resizer{
		origin:       opts.Origin,
		cache:        opts.Cache,
		engine:       engine,
		log:          coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:        coalesce[Hooks](opts.Hooks, NopHooks{}),
		maxDim:       coalesce(opts.MaxDimension, MaxDimension),
		cacheControl: coalesce(opts.CacheControl, CacheControl),
		defaultCT:    coalesce(opts.DefaultContentType, defaultContentType),
	}, nil
}
