package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw   string
		level slog.Level
		ok    bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"quiet", LevelQuiet, true},
		{"off", LevelQuiet, true},
		{"-4", slog.LevelDebug, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			level, ok := ParseLevel(tt.raw)
			if level != tt.level || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.raw, level, ok, tt.level, tt.ok)
			}
		})
	}
}

func TestNew_TextLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Options{Level: "warn"}, &buf)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "event", "stringMessage")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "event=stringMessage") {
		t.Errorf("text output = %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Level: "debug", Format: "json"}, &buf)

	logger.Debug("socket open", "id", "127.0.0.1:1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "socket open" || rec["id"] != "127.0.0.1:1" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Level: "quiet"}, &buf)

	logger.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsio.log")
	var fallback bytes.Buffer

	logger, closer := New(Options{File: path, MaxSizeMB: 1}, &fallback)
	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback writer used: %q", fallback.String())
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "JSON")
	t.Setenv(EnvLogFile, "")

	opts := Options{Level: "info", Format: "text"}
	opts.ApplyEnv()
	if opts.Level != "debug" || opts.Format != "json" {
		t.Errorf("opts = %+v", opts)
	}

	t.Setenv(EnvLogLevel, "bogus")
	opts = Options{Level: "warn"}
	opts.ApplyEnv()
	if opts.Level != "warn" {
		t.Errorf("invalid env level applied: %q", opts.Level)
	}
}
