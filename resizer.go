package resizecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/resizecache/store"
	"github.com/unkn0wn-root/resizecache/transform"
)

// CacheStatus tells whether a rendition came from the cache store.
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

// Result is a served rendition.
type Result struct {
	Object store.Object
	Status CacheStatus
	Key    string
	// FillErr is the cache write failure on a MISS, if any. It never fails
	// the request.
	FillErr error
}

type Resizer struct {
	origin       store.Origin
	cache        store.Cache
	engine       Transformer
	log          Logger
	hooks        Hooks
	maxDim       int
	cacheControl string
	defaultCT    string
}

// MaxDimension is the configured bound for width and height.
func (r *Resizer) MaxDimension() int { return r.maxDim }

// Validate parses and checks raw input against the configured bound.
func (r *Resizer) Validate(originalPath, widthRaw, heightRaw string) (Request, error) {
	req := ParseRequest(originalPath, widthRaw, heightRaw)
	if err := req.Validate(r.maxDim); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Resize returns the rendition for req, computing and storing it on a miss.
//
// Errors:
//   - *ValidationError (ErrInvalidRequest) before any I/O.
//   - ErrOriginNotFound when the original does not exist.
//   - transform.ErrUnsupportedFormat when the original is not jpeg/png/webp.
//   - anything else is an internal failure.
//
// Cache read failures degrade to a miss; cache write failures are reported in
// Result.FillErr only.
func (r *Resizer) Resize(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(r.maxDim); err != nil {
		r.hooks.Rejected(reasonLabel(err))
		return Result{}, err
	}
	key := DeriveKey(req)

	switch p := r.probe(ctx, key); p.kind {
	case probeHit:
		r.hooks.CacheHit(key)
		r.log.Debug("rendition served from cache", Fields{"key": key, "bytes": len(p.obj.Data)})
		obj := p.obj
		obj.ContentType = coalesce(obj.ContentType, r.defaultCT)
		obj.CacheControl = r.cacheControl
		return Result{Object: obj, Status: CacheHit, Key: key}, nil
	case probeFailure:
		r.hooks.ProbeFailed(key, p.err)
		r.log.Warn("cache probe failed; treating as miss", Fields{"key": key, "err": p.err})
	}
	r.hooks.CacheMiss(key)

	orig, err := r.origin.Get(ctx, req.OriginalPath)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.hooks.OriginMissing(req.OriginalPath)
			return Result{}, fmt.Errorf("%w: %s", ErrOriginNotFound, req.OriginalPath)
		}
		return Result{}, fmt.Errorf("origin get %q: %w", req.OriginalPath, err)
	}

	start := time.Now()
	out, err := r.engine.Transform(ctx, orig.Data, transform.Inside(req.Width, req.Height))
	if err != nil {
		if transform.IsClientError(err) {
			r.hooks.Rejected(reasonLabel(err))
			return Result{}, err
		}
		return Result{}, fmt.Errorf("transform %q: %w", req.OriginalPath, err)
	}
	r.hooks.Transformed(string(out.Source), time.Since(start))

	obj := store.Object{
		Data:         out.Data,
		ContentType:  out.ContentType,
		CacheControl: r.cacheControl,
	}
	res := Result{Object: obj, Status: CacheMiss, Key: key}
	if err := r.cache.Put(ctx, key, obj); err != nil {
		res.FillErr = err
		r.hooks.FillFailed(key, err)
		r.log.Error("cache fill failed", Fields{"key": key, "err": err})
	} else {
		r.log.Debug("rendition stored", Fields{
			"key":    key,
			"bytes":  len(obj.Data),
			"width":  out.Width,
			"height": out.Height,
		})
	}
	return res, nil
}

// Close releases the stores if they own resources. Origin and Cache may be
// the same value; it is closed once.
func (r *Resizer) Close(ctx context.Context) error {
	var errs []error
	if c, ok := r.cache.(store.Closer); ok {
		errs = append(errs, c.Close(ctx))
	}
	if c, ok := r.origin.(store.Closer); ok && !sameStore(r.origin, r.cache) {
		errs = append(errs, c.Close(ctx))
	}
	return errors.Join(errs...)
}

func sameStore(o store.Origin, c store.Cache) (same bool) {
	defer func() {
		// non-comparable dynamic types
		if recover() != nil {
			same = false
		}
	}()
	return any(o) == any(c)
}

type probeKind uint8

const (
	probeMiss probeKind = iota
	probeHit
	probeFailure
)

type probeResult struct {
	kind probeKind
	obj  store.Object
	err  error
}

// probe checks the cache with a metadata call first and downloads the entry
// only when it exists. An entry that vanishes between the two calls is a miss.
func (r *Resizer) probe(ctx context.Context, key string) probeResult {
	ok, err := r.cache.Exists(ctx, key)
	if err != nil {
		return probeResult{kind: probeFailure, err: fmt.Errorf("exists: %w", err)}
	}
	if !ok {
		return probeResult{kind: probeMiss}
	}
	obj, err := r.cache.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return probeResult{kind: probeMiss}
	case err != nil:
		return probeResult{kind: probeFailure, err: fmt.Errorf("get: %w", err)}
	}
	return probeResult{kind: probeHit, obj: obj}
}
