package resizecache

import "strconv"

// DeriveKey returns the cache key for req:
//
//	resized/<width>x<height>/<originalPath>
//
// The path is used verbatim. Two paths that differ only in an embedded
// "resized/WxH/" segment can therefore map onto each other's keys; this is
// a known limitation of the scheme.
func DeriveKey(req Request) string {
	w := strconv.Itoa(req.Width)
	h := strconv.Itoa(req.Height)
	b := make([]byte, 0, len(KeyPrefix)+len(w)+len(h)+len(req.OriginalPath)+3)
	b = append(b, KeyPrefix...)
	b = append(b, '/')
	b = append(b, w...)
	b = append(b, 'x')
	b = append(b, h...)
	b = append(b, '/')
	b = append(b, req.OriginalPath...)
	return string(b)
}
