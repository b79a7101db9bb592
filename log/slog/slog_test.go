package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/unkn0wn-root/resizecache"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("dropped", resizecache.Fields{"a": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered, got %s", buf.String())
	}

	l.Info("rendition stored", resizecache.Fields{"key": "resized/5x0/a.png", "bytes": 12})
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rec["msg"] != "rendition stored" || rec["key"] != "resized/5x0/a.png" || rec["bytes"] != float64(12) {
		t.Fatalf("record=%v", rec)
	}
}
