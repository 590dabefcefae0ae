// Package logging provides a small levelled key/value logger.
//
// Output goes to stderr by default because stdout carries the MCP protocol
// when the server runs in stdio mode.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

// ParseLevel converts a level name to a Level. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return levelOff
	default:
		return LevelInfo
	}
}

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
		return "OFF"
	}
}

// Logger writes lines of the form "[LEVEL] msg k=v k=v".
type Logger struct {
	prefix string
	level  Level
	logger *log.Logger
}

// New creates a logger writing to stderr with the given prefix and minimum level.
func New(prefix string, level Level) *Logger {
	return NewWithWriter(os.Stderr, prefix, level)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{
		prefix: prefix,
		level:  level,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.Ldate|log.Ltime),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, "nop", levelOff)
}

// With returns a child logger whose prefix is extended by name.
func (l *Logger) With(name string) *Logger {
	if l == nil {
		return Nop()
	}
	prefix := l.prefix + "." + name
	return &Logger{
		prefix: prefix,
		level:  l.level,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", prefix), l.logger.Flags()),
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level && l.level != levelOff
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v=(missing)", keysAndValues[i])
		}
	}
	l.logger.Printf("[%s] %s%s", level, msg, b.String())
}
