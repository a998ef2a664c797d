// Package logging builds the slog handler used by the wsio command.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel  = "WSIO_LOG_LEVEL"
	EnvLogFormat = "WSIO_LOG_FORMAT"
	EnvLogFile   = "WSIO_LOG_FILE"
)

// LevelQuiet is above every level the code logs at, so nothing is written.
const LevelQuiet = slog.Level(12)

// Options selects the log level, format and destination.
type Options struct {
	Level  string // debug, info, warn, error, quiet
	Format string // text or json
	Source bool   // add source file:line

	// File, when set, writes to a rotating file instead of the fallback
	// writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ApplyEnv overrides options from WSIO_LOG_* environment variables.
func (o *Options) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		if _, ok := ParseLevel(v); ok {
			o.Level = v
		}
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))); v == "text" || v == "json" {
		o.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		o.File = v
	}
}

// New builds a logger. Output goes to fallback unless opts.File is set. The
// returned closer releases the log file; it is a no-op for fallback.
func New(opts Options, fallback io.Writer) (*slog.Logger, io.Closer) {
	level, ok := ParseLevel(opts.Level)
	if !ok {
		level = slog.LevelInfo
	}

	var (
		w      io.Writer = fallback
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		w, closer = lj, lj
	}

	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: opts.Source}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler), closer
}

// Configure builds a logger from opts and the environment and installs it
// as the slog default.
func Configure(opts Options, fallback io.Writer) (*slog.Logger, io.Closer) {
	opts.ApplyEnv()
	logger, closer := New(opts, fallback)
	slog.SetDefault(logger)
	return logger, closer
}

// ParseLevel maps a level name to a slog level. Numeric slog levels such as
// "-4" are accepted too.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return slog.LevelInfo, false
	case "debug", "trace":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "quiet", "off", "none", "disabled":
		return LevelQuiet, true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return slog.Level(n), true
	}
	return slog.LevelInfo, false
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
