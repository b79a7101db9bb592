package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/resizecache"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Warn("cache probe failed", resizecache.Fields{"key": "resized/1x0/a", "err": errors.New("boom")})
	l.Debug("no fields", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.LoggerName != "resizecache" {
		t.Fatalf("level=%v name=%q", e.Level, e.LoggerName)
	}
	ctx := e.ContextMap()
	if ctx["key"] != "resized/1x0/a" || ctx["err"] != "boom" {
		t.Fatalf("context=%v", ctx)
	}
}
