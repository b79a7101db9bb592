package resizecache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/unkn0wn-root/resizecache/transform"
)

const (
	HeaderContentType  = "Content-Type"
	HeaderCacheControl = "Cache-Control"
	HeaderCache        = "X-Cache"
)

// Response is the transport-neutral reply for one request. Success bodies
// are base64 encoded image bytes; error bodies are JSON.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
}

// Payload returns the raw body bytes, decoding base64 when needed.
func (r Response) Payload() ([]byte, error) {
	if r.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(r.Body)
	}
	return []byte(r.Body), nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handle runs the whole request and never fails: every outcome, a panic
// included, becomes a Response.
func (r *Resizer) Handle(ctx context.Context, originalPath, widthRaw, heightRaw string) (resp Response) {
	defer func() {
		if v := recover(); v != nil {
			err := fmt.Errorf("panic: %v", v)
			r.log.Error("resize panicked", Fields{"panic": v, "stack": string(debug.Stack())})
			resp = r.fail(err)
		}
	}()

	res, err := r.Resize(ctx, ParseRequest(originalPath, widthRaw, heightRaw))
	if err != nil {
		return r.fail(err)
	}
	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			HeaderContentType:  res.Object.ContentType,
			HeaderCacheControl: r.cacheControl,
			HeaderCache:        string(res.Status),
		},
		Body:            base64.StdEncoding.EncodeToString(res.Object.Data),
		IsBase64Encoded: true,
	}
}

func (r *Resizer) fail(err error) Response {
	status := StatusFor(err)
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		r.log.Debug("request refused", Fields{"status": status, "err": err})
		return jsonResponse(status, errorBody{Error: publicMessage(err)})
	}
	r.hooks.Internal(err)
	r.log.Error("resize failed", Fields{"err": err})
	return jsonResponse(http.StatusInternalServerError, errorBody{
		Error:   "Internal server error",
		Message: err.Error(),
	})
}

// StatusFor maps a Resize error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, transform.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrOriginNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// publicMessage is the client-facing text for 4xx errors.
func publicMessage(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		switch {
		case errors.Is(ve.Reason, ErrMissingPath):
			return "Image path is required"
		case errors.Is(ve.Reason, ErrNoDimension):
			return "Width or height must be specified"
		default:
			return "Maximum dimension is " + strconv.Itoa(ve.Max) + "px"
		}
	case errors.Is(err, ErrOriginNotFound):
		return "Image not found"
	}
	return "Unsupported image format. Supported: jpg, png, webp"
}

func jsonResponse(status int, body errorBody) Response {
	b, err := json.Marshal(body)
	if err != nil {
		b = []byte(`{"error":"Internal server error"}`)
	}
	return Response{
		StatusCode: status,
		Headers:    map[string]string{HeaderContentType: "application/json"},
		Body:       string(b),
	}
}
