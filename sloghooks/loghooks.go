// Package sloghooks logs resizecache events to a *slog.Logger.
package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/resizecache"
	"github.com/unkn0wn-root/resizecache/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery      uint64
	MissEvery     uint64
	RejectedEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix. Origin paths can
	// carry user identifiers, and cache keys embed them.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr      atomic.Uint64
	missCtr     atomic.Uint64
	rejectedCtr atomic.Uint64
}

var _ resizecache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.Digest(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("resizecache.cache_hit", "key", h.redact(key))
}

func (h *Hooks) CacheMiss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("resizecache.cache_miss", "key", h.redact(key))
}

func (h *Hooks) ProbeFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("resizecache.probe_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) FillFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("resizecache.fill_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) Rejected(reason string) {
	if h.l == nil || !sample(h.opts.RejectedEvery, &h.rejectedCtr) {
		return
	}
	h.l.Info("resizecache.rejected", "reason", reason)
}

func (h *Hooks) OriginMissing(path string) {
	if h.l == nil {
		return
	}
	h.l.Info("resizecache.origin_missing", "path", h.redact(path))
}

func (h *Hooks) Transformed(source string, elapsed time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("resizecache.transformed",
		"source", source,
		"elapsed", elapsed)
}

func (h *Hooks) Internal(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("resizecache.internal", "err", err)
}
