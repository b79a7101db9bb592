package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactsKeys(t *testing.T) {
	var buf bytes.Buffer
	h := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), Options{})

	h.FillFailed("resized/10x0/users/42/avatar.png", errors.New("denied"))
	out := buf.String()
	if strings.Contains(out, "users/42") {
		t.Fatalf("key leaked: %s", out)
	}
	if !strings.Contains(out, "resizecache.fill_failed") || !strings.Contains(out, "denied") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSampling(t *testing.T) {
	var buf bytes.Buffer
	h := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), Options{
		HitEvery: 3,
		Redact:   func(s string) string { return s },
	})
	for i := 0; i < 9; i++ {
		h.CacheHit("k")
	}
	if n := strings.Count(buf.String(), "resizecache.cache_hit"); n != 3 {
		t.Fatalf("logged %d hits, want 3", n)
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.Internal(errors.New("x"))
	h.Rejected("no_dimension")
}
