package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", ...) to a Level.
// Unknown names map to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Field is a single structured logging attribute.
type Field = slog.Attr

// Str builds a string field.
func Str(key, value string) Field { return slog.String(key, value) }

// Int builds an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Int64 builds an int64 field.
func Int64(key string, value int64) Field { return slog.Int64(key, value) }

// Dur builds a duration field.
func Dur(key string, value time.Duration) Field {
	return slog.String(key, value.String())
}

// Err builds an error field. A nil error renders as "<nil>".
func Err(err error) Field {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Component builds the component tag used by all stratum subsystems.
func Component(name string) Field { return slog.String("component", name) }

// Logger is the logging interface passed between stratum components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that adds the fields to every entry.
	With(fields ...Field) Logger

	// WithComponent tags entries with a component name.
	WithComponent(component string) Logger

	// SetLevel sets the minimum level. Affects this logger and every logger
	// derived from it.
	SetLevel(level Level)
}

// LoggerOption configures a logger at construction time.
type LoggerOption func(*options)

type options struct {
	level  Level
	out    io.Writer
	asJSON bool
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(o *options) { o.level = level }
}

// WithOutput sets the destination writer. Defaults to stderr.
func WithOutput(w io.Writer) LoggerOption {
	return func(o *options) { o.out = w }
}

// WithJSONFormat switches output from text to JSON entries.
func WithJSONFormat() LoggerOption {
	return func(o *options) { o.asJSON = true }
}

type baseLogger struct {
	sl    *slog.Logger
	level *levelVar
}

type levelVar struct{ v atomic.Int64 }

func (lv *levelVar) Level() slog.Level { return Level(lv.v.Load()).slog() }

// NewLogger creates a logger writing text (or JSON) entries to the
// configured output.
func NewLogger(opts ...LoggerOption) Logger {
	o := options{level: InfoLevel, out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	lv := &levelVar{}
	lv.v.Store(int64(o.level))
	hopts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	if o.asJSON {
		h = slog.NewJSONHandler(o.out, hopts)
	} else {
		h = slog.NewTextHandler(o.out, hopts)
	}
	return &baseLogger{sl: slog.New(h), level: lv}
}

// NewNop returns a logger that discards everything. Useful as a default in
// library constructors.
func NewNop() Logger {
	return NewLogger(WithOutput(io.Discard), WithLevel(ErrorLevel))
}

func (b *baseLogger) log(level Level, msg string, fields []Field) {
	if Level(b.level.v.Load()) > level {
		return
	}
	b.sl.LogAttrs(context.Background(), level.slog(), msg, fields...)
}

func (b *baseLogger) Debug(msg string, fields ...Field) { b.log(DebugLevel, msg, fields) }
func (b *baseLogger) Info(msg string, fields ...Field)  { b.log(InfoLevel, msg, fields) }
func (b *baseLogger) Warn(msg string, fields ...Field)  { b.log(WarnLevel, msg, fields) }
func (b *baseLogger) Error(msg string, fields ...Field) { b.log(ErrorLevel, msg, fields) }

func (b *baseLogger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &baseLogger{sl: b.sl.With(args...), level: b.level}
}

func (b *baseLogger) WithComponent(component string) Logger {
	return b.With(Component(component))
}

func (b *baseLogger) SetLevel(level Level) { b.level.v.Store(int64(level)) }
