// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the handler. Zero values mean: warn level, text format,
// write to the fallback writer.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	// File, when set, sends logs to a size-rotated file instead of the
	// fallback writer.
	File      string
	MaxSizeMB int
	MaxFiles  int
}

// redactedKeys are attribute keys whose values never reach a log sink.
var redactedKeys = map[string]struct{}{
	"secret_key": {},
	"access_key": {},
	"password":   {},
	"token":      {},
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// New builds a logger. The returned closer releases the rotating file, if
// any; it is always non-nil.
func New(opts Options, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = fallback
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating, err := newRotatingWriter(opts)
		if err != nil {
			return nil, nil, err
		}
		w, closer = rotating, rotating
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}
	var handler slog.Handler
	switch opts.Format {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return slog.New(handler), closer, nil
}

// Setup builds a logger with New and installs it as the slog default.
func Setup(opts Options) (io.Closer, error) {
	logger, closer, err := New(opts, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

func newRotatingWriter(opts Options) (*lumberjack.Logger, error) {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxFiles,
	}, nil
}

func redact(_ []string, attr slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(attr.Key)]; ok {
		return slog.String(attr.Key, "[REDACTED]")
	}
	return attr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
