package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ewscli/internal/config"
)

var (
	globalMu     sync.Mutex
	globalLogger *slog.Logger
	globalSink   io.Closer
)

// InitializeLogger builds the process logger from cfg and installs it as
// the slog default. Later calls return the first logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		return globalLogger, nil
	}
	logger, sink, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	globalLogger, globalSink = logger, sink
	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the process logger, or slog.Default before
// InitializeLogger
func GetLogger() *slog.Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// CloseLogger flushes and closes the process log file, if any. The logger
// itself stays installed.
func CloseLogger() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalSink == nil {
		return nil
	}
	err := globalSink.Close()
	globalSink = nil
	return err
}

// ResetLoggerForTesting drops the process logger
func ResetLoggerForTesting() {
	CloseLogger()
	globalMu.Lock()
	globalLogger = nil
	globalMu.Unlock()
}

// NewLogger builds a JSON logger for cfg without touching process state.
// The returned closer releases the log file for "file" and "both" output.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	w, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}
	level := parseLogLevel(cfg.Level)
	logger := NewJSONLogger(w, &slog.HandlerOptions{
		AddSource: level == slog.LevelDebug,
		Level:     level,
	})
	return logger, closer, nil
}

// NewJSONLogger wraps a JSON handler on w with trace ID injection
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(&contextHandler{Handler: slog.NewJSONHandler(w, opts)})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openOutput resolves cfg.Output to a writer. Anything but "file" and
// "both" logs to stderr so stdout stays free for CLI output.
func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	output := strings.ToLower(cfg.Output)
	if output != "file" && output != "both" {
		return os.Stderr, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if output == "both" {
		return io.MultiWriter(os.Stderr, f), f, nil
	}
	return f, f, nil
}

// parseLogLevel accepts slog's level names plus "warning"; unknown names
// mean info
func parseLogLevel(name string) slog.Level {
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// contextHandler adds trace_id from the record's context
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
