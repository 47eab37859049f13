package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerTo(&stdout, &stderr)
	logger.SetLevel(DebugLevel)

	logger.Debug("frame analyzed", Fields{"frame": 3})
	logger.Warn("hop exceeds frame")
	logger.Error(errors.New("boom"), "transform failed", Fields{"frame": 7})

	if got := stdout.String(); got != "[DEBUG] frame analyzed frame=3\n" {
		t.Fatalf("stdout=%q", got)
	}

	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("stderr lines=%d, want 2: %q", len(lines), stderr.String())
	}
	if lines[0] != "[WARN] hop exceeds frame" {
		t.Fatalf("warn line=%q", lines[0])
	}
	if lines[1] != "[ERROR] transform failed: boom frame=7" {
		t.Fatalf("error line=%q", lines[1])
	}
}

func TestDefaultLoggerLevelFilter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerTo(&stdout, &stderr)
	logger.SetLevel(WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")

	if stdout.Len() != 0 {
		t.Fatalf("expected no stdout output, got %q", stdout.String())
	}
}

func TestDefaultLoggerFatalExits(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerTo(&stdout, &stderr)

	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(errors.New("no such file"), "open input")

	if code != 1 {
		t.Fatalf("exit code=%d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "[FATAL] open input: no such file") {
		t.Fatalf("stderr=%q", stderr.String())
	}
}

func TestWithFieldsAndContext(t *testing.T) {
	var stdout, stderr bytes.Buffer
	base := NewDefaultLoggerTo(&stdout, &stderr)

	ctx := ContextWithFields(context.Background(), Fields{"run": "a"})
	logger := base.WithFields(Fields{"component": "stretcher"}).WithContext(ctx)
	logger.Info("done", Fields{"frames": 30})

	want := "[INFO] done component=stretcher frames=30 run=a\n"
	if got := stdout.String(); got != want {
		t.Fatalf("stdout=%q, want %q", got, want)
	}

	// the parent logger keeps its own fields
	stdout.Reset()
	base.Info("plain")
	if got := stdout.String(); got != "[INFO] plain\n" {
		t.Fatalf("parent logger leaked fields: %q", got)
	}
}

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLoggerFrom(zap.New(core)).WithFields(Fields{"component": "stretcher"})

	logger.Debug("frame analyzed", Fields{"frame": 2, "peaks": 5})
	logger.Error(errors.New("bad"), "transform failed")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["component"] != "stretcher" {
		t.Fatalf("component=%v", ctx["component"])
	}
	if ctx["peaks"] != int64(5) {
		t.Fatalf("peaks=%v (%T)", ctx["peaks"], ctx["peaks"])
	}

	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("level=%v", entries[1].Level)
	}
	if entries[1].ContextMap()["error"] != "bad" {
		t.Fatalf("error field=%v", entries[1].ContextMap()["error"])
	}
}

func TestZapLoggerSetLevel(t *testing.T) {
	logger, err := NewZapLogger(InfoLevel)
	if err != nil {
		t.Fatalf("NewZapLogger: %v", err)
	}

	if logger.logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be disabled at info level")
	}

	logger.SetLevel(DebugLevel)
	if !logger.logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be enabled after SetLevel(DebugLevel)")
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("global logger=%T, want *NoOpLogger", GetGlobalLogger())
	}
}
