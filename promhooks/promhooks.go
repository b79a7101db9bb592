// Package promhooks exports resizecache events as Prometheus metrics.
package promhooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/resizecache"
)

const defaultNamespace = "resizecache"

type Hooks struct {
	lookups       *prometheus.CounterVec
	probeFailures prometheus.Counter
	fillFailures  prometheus.Counter
	rejected      *prometheus.CounterVec
	originMissing prometheus.Counter
	internal      prometheus.Counter
	transform     *prometheus.HistogramVec
}

var _ resizecache.Hooks = (*Hooks)(nil)

// New registers the collectors on reg (nil => prometheus.DefaultRegisterer).
// It panics if they are already registered there, like promauto does.
func New(namespace string, reg prometheus.Registerer) *Hooks {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Hooks{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result (hit, miss).",
		}, []string{"result"}),
		probeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_probe_failures_total",
			Help:      "Cache reads that failed and were treated as misses.",
		}),
		fillFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fill_failures_total",
			Help:      "Renditions served but not stored.",
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Requests refused as client errors.",
		}, []string{"reason"}),
		originMissing: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origin_missing_total",
			Help:      "Requests for originals that do not exist.",
		}),
		internal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "internal_errors_total",
			Help:      "Requests answered with 500.",
		}),
		transform: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Time spent decoding, resizing and encoding.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"source"}),
	}
}

func (h *Hooks) CacheHit(string)           { h.lookups.WithLabelValues("hit").Inc() }
func (h *Hooks) CacheMiss(string)          { h.lookups.WithLabelValues("miss").Inc() }
func (h *Hooks) ProbeFailed(string, error) { h.probeFailures.Inc() }
func (h *Hooks) FillFailed(string, error)  { h.fillFailures.Inc() }
func (h *Hooks) Rejected(reason string)    { h.rejected.WithLabelValues(reason).Inc() }
func (h *Hooks) OriginMissing(string)      { h.originMissing.Inc() }
func (h *Hooks) Internal(error)            { h.internal.Inc() }
func (h *Hooks) Transformed(source string, elapsed time.Duration) {
	h.transform.WithLabelValues(source).Observe(elapsed.Seconds())
}
