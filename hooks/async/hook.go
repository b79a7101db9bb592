// Package asynchook moves hook work off the request path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery: 100, // sample logs: ~every 100th hit
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	r, _ := resizecache.New(resizecache.Options{
//	    Origin: bucket,
//	    Cache:  cache,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/resizecache"
)

type Hooks struct {
	inner   resizecache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ resizecache.Hooks = (*Hooks)(nil)

func New(inner resizecache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped counts events discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// lost the race with Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(k string)               { h.try(func() { h.inner.CacheHit(k) }) }
func (h *Hooks) CacheMiss(k string)              { h.try(func() { h.inner.CacheMiss(k) }) }
func (h *Hooks) ProbeFailed(k string, err error) { h.try(func() { h.inner.ProbeFailed(k, err) }) }
func (h *Hooks) FillFailed(k string, err error)  { h.try(func() { h.inner.FillFailed(k, err) }) }
func (h *Hooks) Rejected(r string)               { h.try(func() { h.inner.Rejected(r) }) }
func (h *Hooks) OriginMissing(p string)          { h.try(func() { h.inner.OriginMissing(p) }) }
func (h *Hooks) Internal(err error)              { h.try(func() { h.inner.Internal(err) }) }
func (h *Hooks) Transformed(s string, d time.Duration) {
	h.try(func() { h.inner.Transformed(s, d) })
}
