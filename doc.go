// Package resizecache serves resized renditions of stored images, computing
// each rendition once and reading it back from a cache store afterwards.
//
// Components:
//   - store.Origin: where originals live (e.g. store/s3).
//   - store.Cache: where renditions live (store/s3, or store/kv over
//     Redis, Ristretto or BigCache).
//   - Transformer: decode, fit-inside resize, encode (package transform).
//   - Resizer: the cache-aside pipeline tying them together.
//
// Keys:
//
//	resized/<width>x<height>/<originalPath>
//
// Width and height are the parsed integers (0 when only the other side was
// requested). The original path is not escaped.
//
// Flow:
//
//	validate -> key -> cache exists+get -> HIT
//	                                    -> MISS: origin get -> transform -> cache put -> MISS
//
// A failed cache read is a miss. A failed cache write is logged and the
// computed rendition is still returned.
package resizecache
