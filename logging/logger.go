// Package logging provides a tiny abstraction over slog so the rest of the
// module can depend on a minimal interface (Logger) while allowing callers to
// plug any structured logger. A richer RunLogger adds contextual helpers
// (session, run, component) plus domain specific helpers for tool and model
// calls.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Level is a thin enum for user friendly level configuration decoupled from slog.
type Level int

const (
	// LevelDebug is the debug logging level.
	LevelDebug Level = iota
	// LevelInfo is the informational logging level.
	LevelInfo
	// LevelWarn is the warning logging level.
	LevelWarn
	// LevelError is the error logging level.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger defines the minimal logging interface used across the module.
// Args follow slog conventions (alternating key/value pairs).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// Config configures construction of a slog-backed Logger.
type Config struct {
	Level     Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info level configuration.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Format: "json", Output: os.Stderr}
}

// New builds a Logger from a config (or defaults if nil).
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// NewSlogLogger creates a Logger with the given level and format ("json" or "text").
func NewSlogLogger(level Level, format string, addSource bool) Logger {
	cfg := DefaultConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return New(cfg)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RunLogger wraps a slog.Logger adding contextual cloning helpers and domain
// convenience methods. It is cheap to copy via the With* methods.
type RunLogger struct {
	logger    *slog.Logger
	level     Level
	component string
	sessionID string
	runID     string
}

// NewRunLogger builds a RunLogger from a Config (or defaults if nil).
func NewRunLogger(cfg *Config) *RunLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	base := New(cfg).(*SlogAdapter)
	return &RunLogger{logger: base.Logger, level: cfg.Level}
}

func (l *RunLogger) clone() *RunLogger {
	nl := *l
	return &nl
}

// WithComponent sets the logical component (agent, flow, runner, etc.).
func (l *RunLogger) WithComponent(c string) *RunLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession attaches session and run identifiers.
func (l *RunLogger) WithSession(sid, rid string) *RunLogger {
	nl := l.clone()
	nl.sessionID = sid
	nl.runID = rid
	return nl
}

func (l *RunLogger) attrs(extra []any) []any {
	out := make([]any, 0, len(extra)+6)
	if l.component != "" {
		out = append(out, "component", l.component)
	}
	if l.sessionID != "" {
		out = append(out, "session_id", l.sessionID)
	}
	if l.runID != "" {
		out = append(out, "run_id", l.runID)
	}
	return append(out, extra...)
}

func (l *RunLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	l.logger.Log(context.Background(), level, msg, l.attrs(args)...)
}

// Debug logs at debug level.
func (l *RunLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *RunLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *RunLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *RunLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LevelError, msg, args...)
}

// LogToolCall records execution details for a tool invocation.
func (l *RunLogger) LogToolCall(tool string, dur time.Duration, err error) {
	args := []any{"tool_name", tool, "duration_ms", dur.Milliseconds(), "success", err == nil}
	if err != nil {
		args = append(args, "error", err.Error())
		l.Error("tool call failed", args...)
		return
	}
	l.Info("tool call completed", args...)
}

// LogModelCall records model call latency, token usage and success.
func (l *RunLogger) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	args := []any{"model", model, "token_count", tokens, "duration_ms", dur.Milliseconds(), "success", err == nil}
	if err != nil {
		args = append(args, "error", err.Error())
		l.Error("model call failed", args...)
		return
	}
	l.Info("model call completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
