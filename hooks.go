package resizecache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The resizer calls them on the request path.
type Hooks interface {
	// The rendition was served from the cache store.
	CacheHit(key string)

	// The rendition was absent (or unreadable) and is being computed.
	CacheMiss(key string)

	// Exists or Get on the cache store failed; the request continues as a miss.
	ProbeFailed(key string, err error)

	// Writing the computed rendition failed; the response was still served.
	FillFailed(key string, err error)

	// The request was refused as a client error.
	// reason ∈ {"missing_path", "no_dimension", "dimension_too_large", "unsupported_format"}
	Rejected(reason string)

	// The original image does not exist.
	OriginMissing(path string)

	// A rendition was computed. source is the detected input format.
	Transformed(source string, elapsed time.Duration)

	// Any failure answered with 500, panics included.
	Internal(err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                   {}
func (NopHooks) CacheMiss(string)                  {}
func (NopHooks) ProbeFailed(string, error)         {}
func (NopHooks) FillFailed(string, error)          {}
func (NopHooks) Rejected(string)                   {}
func (NopHooks) OriginMissing(string)              {}
func (NopHooks) Transformed(string, time.Duration) {}
func (NopHooks) Internal(error)                    {}

// MultiHooks fans every event out to each element in order.
type MultiHooks []Hooks

func (m MultiHooks) CacheHit(k string) {
	for _, h := range m {
		h.CacheHit(k)
	}
}

func (m MultiHooks) CacheMiss(k string) {
	for _, h := range m {
		h.CacheMiss(k)
	}
}

func (m MultiHooks) ProbeFailed(k string, err error) {
	for _, h := range m {
		h.ProbeFailed(k, err)
	}
}

func (m MultiHooks) FillFailed(k string, err error) {
	for _, h := range m {
		h.FillFailed(k, err)
	}
}

func (m MultiHooks) Rejected(reason string) {
	for _, h := range m {
		h.Rejected(reason)
	}
}

func (m MultiHooks) OriginMissing(path string) {
	for _, h := range m {
		h.OriginMissing(path)
	}
}

func (m MultiHooks) Transformed(source string, elapsed time.Duration) {
	for _, h := range m {
		h.Transformed(source, elapsed)
	}
}

func (m MultiHooks) Internal(err error) {
	for _, h := range m {
		h.Internal(err)
	}
}
