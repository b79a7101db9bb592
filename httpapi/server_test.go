package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/resizecache"
)

type call struct{ path, w, h string }

type fakeHandler struct {
	calls []call
	resp  resizecache.Response
}

func (f *fakeHandler) Handle(_ context.Context, p, w, h string) resizecache.Response {
	f.calls = append(f.calls, call{p, w, h})
	return f.resp
}

func imageResponse(data []byte) resizecache.Response {
	return resizecache.Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			resizecache.HeaderContentType:  "image/png",
			resizecache.HeaderCacheControl: resizecache.CacheControl,
			resizecache.HeaderCache:        "HIT",
		},
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
	}
}

func TestResizePathRoute(t *testing.T) {
	fh := &fakeHandler{resp: imageResponse([]byte{0x89, 'P', 'N', 'G'})}
	e := New(Options{Handler: fh})

	req := httptest.NewRequest(http.MethodGet, "/resize/photos/my%20cat.png?width=300", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fh.calls, 1)
	assert.Equal(t, call{"photos/my cat.png", "300", ""}, fh.calls[0])
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, resizecache.CacheControl, rec.Header().Get("Cache-Control"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes())
}

func TestResizeQueryRoute(t *testing.T) {
	fh := &fakeHandler{resp: resizecache.Response{
		StatusCode: http.StatusBadRequest,
		Headers:    map[string]string{resizecache.HeaderContentType: "application/json"},
		Body:       `{"error":"Width or height must be specified"}`,
	}}
	e := New(Options{Handler: fh})

	req := httptest.NewRequest(http.MethodGet, "/resize?path=a.jpg&height=abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Width or height must be specified"}`, rec.Body.String())
	require.Len(t, fh.calls, 1)
	assert.Equal(t, call{"a.jpg", "", "abc"}, fh.calls[0])
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("resizecache_up 1\n"))
	})
	e := New(Options{Handler: &fakeHandler{}, Metrics: metrics})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "resizecache_up")
}

func TestNoMetricsRouteByDefault(t *testing.T) {
	e := New(Options{Handler: &fakeHandler{}})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndToEndWithResizer(t *testing.T) {
	// validation errors never reach the stores
	r, err := resizecache.New(resizecache.Options{Origin: noStore{}, Cache: noStore{}})
	require.NoError(t, err)
	e := New(Options{Handler: r})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resize/a.jpg?width=4001", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Maximum dimension is 4000px"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
