package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is a log severity level.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// SetLevel sets the minimum level that will be logged.
func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

// GetLevel returns the current minimum log level.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

func logAt(l Level, prefix, format string, v ...any) {
	if l < GetLevel() {
		return
	}
	log.Printf(prefix+" "+format, v...)
}

// Trace logs at trace level.
func Trace(format string, v ...any) { logAt(LevelTrace, "[TRACE]", format, v...) }

// Debug logs at debug level.
func Debug(format string, v ...any) { logAt(LevelDebug, "[DEBUG]", format, v...) }

// Info logs at info level.
func Info(format string, v ...any) { logAt(LevelInfo, "[INFO]", format, v...) }

// Warn logs at warn level.
func Warn(format string, v ...any) { logAt(LevelWarn, "[WARN]", format, v...) }

// Error logs at error level.
func Error(format string, v ...any) { logAt(LevelError, "[ERROR]", format, v...) }

// Fatal logs at fatal level and exits.
func Fatal(format string, v ...any) {
	logAt(LevelFatal, "[FATAL]", format, v...)
	os.Exit(1)
}
