// Package klog is the kernel's package-level structured logging surface.
//
// Logging is an infrastructure cross-cutting concern shared by every
// scheduler package; rather than threading a logger handle through every
// constructor, klog exposes a pluggable global logger the way
// eventloop.SetStructuredLogger does, backed by zerolog so output is
// structured by default.
package klog

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's level ordering so callers never need to import
// zerolog directly.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Fields is a set of structured key/value pairs attached to a log line.
type Fields map[string]any

// Logger is the structured logging interface kernel packages log through.
type Logger interface {
	Log(level Level, component, message string, fields Fields)
	IsEnabled(level Level) bool
}

// zerologLogger is the default Logger, writing structured events via
// zerolog.
type zerologLogger struct {
	base  zerolog.Logger
	level atomic.Int32
}

// NewZerologLogger constructs a Logger that writes to os.Stderr at the
// given minimum level.
func NewZerologLogger(level Level) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	l := &zerologLogger{base: zerolog.New(os.Stderr).With().Timestamp().Logger()}
	l.level.Store(int32(level))
	return l
}

func (l *zerologLogger) IsEnabled(level Level) bool {
	return int32(level) >= l.level.Load()
}

func (l *zerologLogger) Log(level Level, component, message string, fields Fields) {
	if !l.IsEnabled(level) {
		return
	}
	ev := l.base.WithLevel(level.zerolog()).Str("component", component)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

// noopLogger discards everything; it is the default until SetLogger is
// called, matching eventloop's NewNoOpLogger fallback.
type noopLogger struct{}

func (noopLogger) Log(Level, string, string, Fields) {}
func (noopLogger) IsEnabled(Level) bool              { return false }

var global struct {
	sync.RWMutex
	logger Logger
}

// SetLogger installs the package-level logger used by every kernel
// package. Passing nil restores the no-op default.
func SetLogger(l Logger) {
	global.Lock()
	defer global.Unlock()
	global.logger = l
}

func current() Logger {
	global.RLock()
	defer global.RUnlock()
	if global.logger != nil {
		return global.logger
	}
	return noopLogger{}
}

// Debug logs a debug-level line for component.
func Debug(component, message string, fields Fields) { current().Log(LevelDebug, component, message, fields) }

// Info logs an info-level line for component.
func Info(component, message string, fields Fields) { current().Log(LevelInfo, component, message, fields) }

// Warn logs a warn-level line for component.
func Warn(component, message string, fields Fields) { current().Log(LevelWarn, component, message, fields) }

// Error logs an error-level line for component.
func Error(component, message string, fields Fields) { current().Log(LevelError, component, message, fields) }
