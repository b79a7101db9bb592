package resizecache

const (
	// MaxDimension is the default upper bound for width and height.
	MaxDimension = 4000
	// CacheControl is sent with every rendition and stored on cache entries.
	CacheControl = "public, max-age=31536000"
	// KeyPrefix namespaces renditions in the cache store.
	KeyPrefix = "resized"

	defaultContentType = "image/jpeg"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
