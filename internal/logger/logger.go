// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps the standard log package for human-readable text output and log/slog
// for JSON output, with component-scoped loggers that tag every message.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs per-player and per-table detail; usually disabled.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs recoverable problems such as skipped input rows.
	WarnLevel
	// ErrorLevel logs failures of a whole step (a file, a report output).
	ErrorLevel
)

var slogLevels = map[Level]slog.Level{
	DebugLevel: slog.LevelDebug,
	InfoLevel:  slog.LevelInfo,
	WarnLevel:  slog.LevelWarn,
	ErrorLevel: slog.LevelError,
}

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type sink struct {
	mu    sync.RWMutex
	level Level
	out   *log.Logger
	json  *slog.Logger // set when format is "json"
}

var std = &sink{level: InfoLevel, out: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)}

// Init configures the shared sink with the specified level and format.
// Format "json" emits one JSON object per line through slog; "text" emits
// bracketed levels with the caller's file and line.
func Init(level string, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter is Init with an explicit destination, used by tests.
func InitWriter(w io.Writer, level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	text := strings.ToLower(format) == "text"
	if text {
		flags |= log.Lshortfile
	}

	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = ParseLevel(level)
	std.out = log.New(w, "", flags)
	std.json = nil
	if !text {
		// level filtering happens in output, so the handler accepts everything
		std.json = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Logger is a component-scoped view over the shared sink.
type Logger struct {
	component string
}

// Named returns a logger whose messages carry the given component name.
func Named(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) output(lvl Level, format string, args ...interface{}) {
	std.mu.RLock()
	defer std.mu.RUnlock()
	if lvl < std.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if std.json != nil {
		var attrs []any
		if l.component != "" {
			attrs = append(attrs, slog.String("component", l.component))
		}
		std.json.Log(context.Background(), slogLevels[lvl], msg, attrs...)
		return
	}

	line := "[" + levelNames[lvl] + "] "
	if l.component != "" {
		line += l.component + ": "
	}
	_ = std.out.Output(3, line+msg)
}

// Debug logs a message at DebugLevel
func (l *Logger) Debug(format string, args ...interface{}) { l.output(DebugLevel, format, args...) }

// Info logs a message at InfoLevel
func (l *Logger) Info(format string, args ...interface{}) { l.output(InfoLevel, format, args...) }

// Warn logs a message at WarnLevel
func (l *Logger) Warn(format string, args ...interface{}) { l.output(WarnLevel, format, args...) }

// Error logs a message at ErrorLevel
func (l *Logger) Error(format string, args ...interface{}) { l.output(ErrorLevel, format, args...) }

var root = &Logger{}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) { root.output(DebugLevel, format, args...) }

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) { root.output(InfoLevel, format, args...) }

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) { root.output(WarnLevel, format, args...) }

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) { root.output(ErrorLevel, format, args...) }

// Fatal logs a message regardless of level and exits
func Fatal(format string, args ...interface{}) {
	std.mu.RLock()
	if std.json != nil {
		std.json.Error(fmt.Sprintf(format, args...), slog.Bool("fatal", true))
	} else {
		_ = std.out.Output(2, fmt.Sprintf("[FATAL] "+format, args...))
	}
	std.mu.RUnlock()
	os.Exit(1)
}
