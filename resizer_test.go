package resizecache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/resizecache/store"
	"github.com/unkn0wn-root/resizecache/transform"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]store.Object

	existsErr error
	getErr    error
	putErr    error
	vanish    bool // Exists says yes, Get says not found

	exists, gets, puts int
}

var (
	_ store.Origin = (*memStore)(nil)
	_ store.Cache  = (*memStore)(nil)
)

func newMemStore() *memStore { return &memStore{m: make(map[string]store.Object)} }

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	if s.vanish {
		return true, nil
	}
	_, ok := s.m[key]
	return ok, nil
}

func (s *memStore) Get(_ context.Context, key string) (store.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return store.Object{}, s.getErr
	}
	o, ok := s.m[key]
	if !ok {
		return store.Object{}, store.ErrNotFound
	}
	return o, nil
}

func (s *memStore) Put(_ context.Context, key string, obj store.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.m[key] = obj
	return nil
}

func (s *memStore) put(key string, obj store.Object) {
	s.mu.Lock()
	s.m[key] = obj
	s.mu.Unlock()
}

type recHooks struct {
	NopHooks
	mu       sync.Mutex
	hits     int
	misses   int
	probes   int
	fills    int
	rejected []string
	missing  []string
	internal []error
}

func (h *recHooks) CacheHit(string)  { h.mu.Lock(); h.hits++; h.mu.Unlock() }
func (h *recHooks) CacheMiss(string) { h.mu.Lock(); h.misses++; h.mu.Unlock() }
func (h *recHooks) ProbeFailed(string, error) {
	h.mu.Lock()
	h.probes++
	h.mu.Unlock()
}
func (h *recHooks) FillFailed(string, error) { h.mu.Lock(); h.fills++; h.mu.Unlock() }
func (h *recHooks) Rejected(r string) {
	h.mu.Lock()
	h.rejected = append(h.rejected, r)
	h.mu.Unlock()
}
func (h *recHooks) OriginMissing(p string) {
	h.mu.Lock()
	h.missing = append(h.missing, p)
	h.mu.Unlock()
}
func (h *recHooks) Internal(err error) {
	h.mu.Lock()
	h.internal = append(h.internal, err)
	h.mu.Unlock()
}

type panicEngine struct{}

func (panicEngine) Transform(context.Context, []byte, transform.Options) (transform.Result, error) {
	panic("boom")
}

type countingEngine struct {
	inner Transformer
	n     int
}

func (e *countingEngine) Transform(ctx context.Context, b []byte, o transform.Options) (transform.Result, error) {
	e.n++
	return e.inner.Transform(ctx, b, o)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("gif: %v", err)
	}
	return buf.Bytes()
}

func newTestResizer(t *testing.T, origin, cache *memStore, opt func(*Options)) *Resizer {
	t.Helper()
	opts := Options{Origin: origin, Cache: cache}
	if opt != nil {
		opt(&opts)
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func decodeSize(t *testing.T, data []byte) (string, int, int) {
	t.Helper()
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode rendition: %v", err)
	}
	return name, cfg.Width, cfg.Height
}

func errorField(t *testing.T, resp Response) errorBody {
	t.Helper()
	var b errorBody
	if err := json.Unmarshal([]byte(resp.Body), &b); err != nil {
		t.Fatalf("error body %q: %v", resp.Body, err)
	}
	return b
}

// ==============================
// Pipeline
// ==============================

// TestMissThenHit computes on first request, stores, and serves the stored
// bytes on the second without touching the origin.
func TestMissThenHit(t *testing.T) {
	ctx := context.Background()
	origin, cache := newMemStore(), newMemStore()
	origin.put("photos/cat.png", store.Object{Data: encodePNG(t, 800, 600), ContentType: "image/png"})
	hooks := &recHooks{}
	r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

	resp := r.Handle(ctx, "photos/cat.png", "400", "")
	if resp.StatusCode != 200 {
		t.Fatalf("status=%d body=%s", resp.StatusCode, resp.Body)
	}
	if resp.Headers[HeaderCache] != "MISS" {
		t.Fatalf("X-Cache=%q, want MISS", resp.Headers[HeaderCache])
	}
	if resp.Headers[HeaderContentType] != "image/png" {
		t.Fatalf("Content-Type=%q", resp.Headers[HeaderContentType])
	}
	if resp.Headers[HeaderCacheControl] != CacheControl || !resp.IsBase64Encoded {
		t.Fatalf("headers=%v base64=%v", resp.Headers, resp.IsBase64Encoded)
	}
	miss, err := resp.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if name, w, h := decodeSize(t, miss); name != "png" || w != 400 || h != 300 {
		t.Fatalf("rendition %s %dx%d, want png 400x300", name, w, h)
	}

	stored, ok := cache.m["resized/400x0/photos/cat.png"]
	if !ok {
		t.Fatalf("rendition not stored; keys=%v", cache.m)
	}
	if !bytes.Equal(stored.Data, miss) || stored.ContentType != "image/png" || stored.CacheControl != CacheControl {
		t.Fatalf("stored object mismatch: ct=%q cc=%q", stored.ContentType, stored.CacheControl)
	}

	originGets := origin.gets
	resp = r.Handle(ctx, "photos/cat.png", "400", "")
	if resp.StatusCode != 200 || resp.Headers[HeaderCache] != "HIT" {
		t.Fatalf("second: status=%d X-Cache=%q", resp.StatusCode, resp.Headers[HeaderCache])
	}
	hit, _ := resp.Payload()
	if !bytes.Equal(hit, miss) {
		t.Fatalf("hit body differs from stored rendition")
	}
	if origin.gets != originGets {
		t.Fatalf("origin read on hit")
	}
	if hooks.hits != 1 || hooks.misses != 1 {
		t.Fatalf("hooks hits=%d misses=%d", hooks.hits, hooks.misses)
	}
}

func TestJPEGOutputAndHeightOnly(t *testing.T) {
	ctx := context.Background()
	origin, cache := newMemStore(), newMemStore()
	origin.put("a.jpg", store.Object{Data: encodeJPEG(t, 400, 200)})
	r := newTestResizer(t, origin, cache, nil)

	res, err := r.Resize(ctx, Request{OriginalPath: "a.jpg", Height: 100})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if res.Status != CacheMiss || res.Key != "resized/0x100/a.jpg" {
		t.Fatalf("status=%s key=%s", res.Status, res.Key)
	}
	if res.Object.ContentType != "image/jpeg" {
		t.Fatalf("content type %q", res.Object.ContentType)
	}
	if name, w, h := decodeSize(t, res.Object.Data); name != "jpeg" || w != 200 || h != 100 {
		t.Fatalf("rendition %s %dx%d, want jpeg 200x100", name, w, h)
	}
}

// TestNoEnlargement returns the original dimensions when the box is larger.
func TestNoEnlargement(t *testing.T) {
	ctx := context.Background()
	origin, cache := newMemStore(), newMemStore()
	origin.put("small.png", store.Object{Data: encodePNG(t, 100, 100)})
	r := newTestResizer(t, origin, cache, nil)

	res, err := r.Resize(ctx, Request{OriginalPath: "small.png", Width: 4000})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if _, w, h := decodeSize(t, res.Object.Data); w != 100 || h != 100 {
		t.Fatalf("got %dx%d, want 100x100", w, h)
	}
}

// ==============================
// Client errors
// ==============================

func TestValidationResponses(t *testing.T) {
	cases := []struct {
		name       string
		path, w, h string
		want       string
		reason     string
	}{
		{"missing path", "", "100", "", "Image path is required", "missing_path"},
		{"no dimension", "a.jpg", "", "", "Width or height must be specified", "no_dimension"},
		{"garbage", "a.jpg", "abc", "-5", "Width or height must be specified", "no_dimension"},
		{"too large", "a.jpg", "5000", "", "Maximum dimension is 4000px", "dimension_too_large"},
		{"height too large", "a.jpg", "10", "4001", "Maximum dimension is 4000px", "dimension_too_large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			origin, cache := newMemStore(), newMemStore()
			hooks := &recHooks{}
			r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

			resp := r.Handle(context.Background(), tc.path, tc.w, tc.h)
			if resp.StatusCode != 400 {
				t.Fatalf("status=%d", resp.StatusCode)
			}
			if got := errorField(t, resp).Error; got != tc.want {
				t.Fatalf("error=%q want %q", got, tc.want)
			}
			if origin.gets+cache.exists+cache.gets+cache.puts != 0 {
				t.Fatalf("store touched on validation failure")
			}
			if len(hooks.rejected) != 1 || hooks.rejected[0] != tc.reason {
				t.Fatalf("rejected=%v", hooks.rejected)
			}
		})
	}
}

func TestConfiguredMaxDimension(t *testing.T) {
	r := newTestResizer(t, newMemStore(), newMemStore(), func(o *Options) { o.MaxDimension = 100 })
	resp := r.Handle(context.Background(), "a.jpg", "101", "")
	if resp.StatusCode != 400 || errorField(t, resp).Error != "Maximum dimension is 100px" {
		t.Fatalf("status=%d body=%s", resp.StatusCode, resp.Body)
	}
}

func TestOriginMissing(t *testing.T) {
	origin, cache := newMemStore(), newMemStore()
	hooks := &recHooks{}
	r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

	resp := r.Handle(context.Background(), "nope.jpg", "10", "")
	if resp.StatusCode != 404 || errorField(t, resp).Error != "Image not found" {
		t.Fatalf("status=%d body=%s", resp.StatusCode, resp.Body)
	}
	if cache.puts != 0 {
		t.Fatalf("nothing should be stored")
	}
	if len(hooks.missing) != 1 || hooks.missing[0] != "nope.jpg" {
		t.Fatalf("missing=%v", hooks.missing)
	}

	_, err := r.Resize(context.Background(), Request{OriginalPath: "nope.jpg", Width: 10})
	if !errors.Is(err, ErrOriginNotFound) {
		t.Fatalf("want ErrOriginNotFound, got %v", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	for name, data := range map[string][]byte{
		"gif":     encodeGIF(t),
		"garbage": []byte("definitely not an image"),
	} {
		t.Run(name, func(t *testing.T) {
			origin, cache := newMemStore(), newMemStore()
			origin.put("x", store.Object{Data: data})
			r := newTestResizer(t, origin, cache, nil)

			resp := r.Handle(context.Background(), "x", "10", "")
			if resp.StatusCode != 400 {
				t.Fatalf("status=%d body=%s", resp.StatusCode, resp.Body)
			}
			if got := errorField(t, resp).Error; got != "Unsupported image format. Supported: jpg, png, webp" {
				t.Fatalf("error=%q", got)
			}
			if cache.puts != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

// ==============================
// Degraded cache
// ==============================

func TestProbeFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	origin, cache := newMemStore(), newMemStore()
	origin.put("a.png", store.Object{Data: encodePNG(t, 20, 20)})
	cache.existsErr = errors.New("connection refused")
	hooks := &recHooks{}
	r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

	resp := r.Handle(ctx, "a.png", "10", "")
	if resp.StatusCode != 200 || resp.Headers[HeaderCache] != "MISS" {
		t.Fatalf("status=%d X-Cache=%q", resp.StatusCode, resp.Headers[HeaderCache])
	}
	if hooks.probes != 1 {
		t.Fatalf("ProbeFailed calls=%d", hooks.probes)
	}
}

func TestGetFailureAfterExistsIsMiss(t *testing.T) {
	origin, cache := newMemStore(), newMemStore()
	origin.put("a.png", store.Object{Data: encodePNG(t, 20, 20)})
	cache.put("resized/10x0/a.png", store.Object{Data: []byte("x")})
	cache.getErr = errors.New("read timeout")
	r := newTestResizer(t, origin, cache, nil)

	res, err := r.Resize(context.Background(), Request{OriginalPath: "a.png", Width: 10})
	if err != nil || res.Status != CacheMiss {
		t.Fatalf("status=%s err=%v", res.Status, err)
	}
}

func TestVanishedEntryIsMiss(t *testing.T) {
	origin, cache := newMemStore(), newMemStore()
	origin.put("a.png", store.Object{Data: encodePNG(t, 20, 20)})
	cache.vanish = true
	hooks := &recHooks{}
	r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

	res, err := r.Resize(context.Background(), Request{OriginalPath: "a.png", Width: 10})
	if err != nil || res.Status != CacheMiss {
		t.Fatalf("status=%s err=%v", res.Status, err)
	}
	if hooks.probes != 0 {
		t.Fatalf("vanished entry is a plain miss, not a probe failure")
	}
}

// TestFillFailureStillServes keeps the computed rendition when Put fails.
func TestFillFailureStillServes(t *testing.T) {
	origin, cache := newMemStore(), newMemStore()
	origin.put("a.png", store.Object{Data: encodePNG(t, 20, 20)})
	cache.putErr = errors.New("access denied")
	hooks := &recHooks{}
	r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

	resp := r.Handle(context.Background(), "a.png", "10", "")
	if resp.StatusCode != 200 || resp.Headers[HeaderCache] != "MISS" {
		t.Fatalf("status=%d X-Cache=%q", resp.StatusCode, resp.Headers[HeaderCache])
	}
	if hooks.fills != 1 || len(hooks.internal) != 0 {
		t.Fatalf("fills=%d internal=%d", hooks.fills, len(hooks.internal))
	}

	res, err := r.Resize(context.Background(), Request{OriginalPath: "a.png", Width: 10})
	if err != nil || res.FillErr == nil {
		t.Fatalf("FillErr should carry the write failure, err=%v", err)
	}
}

func TestHitDefaultsContentType(t *testing.T) {
	cache := newMemStore()
	cache.put("resized/10x0/a.png", store.Object{Data: []byte("rendition")})
	r := newTestResizer(t, newMemStore(), cache, nil)

	resp := r.Handle(context.Background(), "a.png", "10", "")
	if resp.StatusCode != 200 || resp.Headers[HeaderContentType] != "image/jpeg" {
		t.Fatalf("status=%d headers=%v", resp.StatusCode, resp.Headers)
	}
	if body, _ := resp.Payload(); string(body) != "rendition" {
		t.Fatalf("body=%q", body)
	}
}

// ==============================
// Internal errors
// ==============================

func TestOriginFailureIs500(t *testing.T) {
	origin, cache := newMemStore(), newMemStore()
	origin.getErr = errors.New("s3: slow down")
	hooks := &recHooks{}
	r := newTestResizer(t, origin, cache, func(o *Options) { o.Hooks = hooks })

	resp := r.Handle(context.Background(), "a.png", "10", "")
	if resp.StatusCode != 500 {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	b := errorField(t, resp)
	if b.Error != "Internal server error" || !strings.Contains(b.Message, "slow down") {
		t.Fatalf("body=%+v", b)
	}
	if len(hooks.internal) != 1 {
		t.Fatalf("internal=%d", len(hooks.internal))
	}
}

func TestPanicBecomes500(t *testing.T) {
	origin := newMemStore()
	origin.put("a.png", store.Object{Data: []byte("x")})
	r := newTestResizer(t, origin, newMemStore(), func(o *Options) { o.Engine = panicEngine{} })

	resp := r.Handle(context.Background(), "a.png", "10", "")
	if resp.StatusCode != 500 {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if b := errorField(t, resp); !strings.Contains(b.Message, "boom") {
		t.Fatalf("message=%q", b.Message)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 200},
		{&ValidationError{Reason: ErrMissingPath}, 400},
		{transform.ErrUnsupportedFormat, 400},
		{ErrOriginNotFound, 404},
		{errors.New("x"), 500},
		{&transform.CodecError{Op: "decode", Err: errors.New("eof")}, 500},
		{context.DeadlineExceeded, 500},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v)=%d want %d", tc.err, got, tc.want)
		}
	}
}

// ==============================
// Concurrency and lifecycle
// ==============================

// TestConcurrentMissesConverge lets duplicate computations race; every
// caller gets a valid rendition and the stored entry is one of them.
func TestConcurrentMissesConverge(t *testing.T) {
	ctx := context.Background()
	origin, cache := newMemStore(), newMemStore()
	origin.put("a.png", store.Object{Data: encodePNG(t, 64, 64)})
	r := newTestResizer(t, origin, cache, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := r.Handle(ctx, "a.png", "32", "")
			if resp.StatusCode != 200 {
				t.Errorf("status=%d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	if _, ok := cache.m["resized/32x0/a.png"]; !ok {
		t.Fatalf("rendition not stored")
	}
}

func TestDeterministicRendition(t *testing.T) {
	origin := newMemStore()
	origin.put("a.png", store.Object{Data: encodePNG(t, 100, 80)})
	eng := &countingEngine{inner: mustEngine(t)}
	r := newTestResizer(t, origin, newMemStore(), func(o *Options) { o.Engine = eng })

	a, err := r.Resize(context.Background(), Request{OriginalPath: "a.png", Width: 30})
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	b, err := eng.inner.Transform(context.Background(), origin.m["a.png"].Data, transform.Inside(30, 0))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !bytes.Equal(a.Object.Data, b.Data) {
		t.Fatalf("identical inputs produced different bytes")
	}
	if eng.n != 1 {
		t.Fatalf("engine calls=%d", eng.n)
	}
}

func mustEngine(t *testing.T) *transform.Engine {
	t.Helper()
	e, err := transform.New(transform.Config{})
	if err != nil {
		t.Fatalf("transform.New: %v", err)
	}
	return e
}

type closingStore struct {
	*memStore
	closed int
}

func (c *closingStore) Close(context.Context) error { c.closed++; return nil }

func TestCloseSharedStoreOnce(t *testing.T) {
	s := &closingStore{memStore: newMemStore()}
	r, err := New(Options{Origin: s, Cache: s})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.closed != 1 {
		t.Fatalf("closed=%d want 1", s.closed)
	}
}

func TestNewRequiresStores(t *testing.T) {
	if _, err := New(Options{Cache: newMemStore()}); err == nil {
		t.Fatalf("missing Origin should fail")
	}
	if _, err := New(Options{Origin: newMemStore()}); err == nil {
		t.Fatalf("missing Cache should fail")
	}
	if _, err := New(Options{Origin: newMemStore(), Cache: newMemStore(), MaxDimension: -1}); err == nil {
		t.Fatalf("negative MaxDimension should fail")
	}
}
