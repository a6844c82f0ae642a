// Package logger provides leveled structured logging for the application.
// Messages carry an optional field map rendered as key=value pairs:
//
//	log := logger.New(logger.LevelInfo)
//	log.Info("watch started", logger.Fields{
//	    "platform": "twitch",
//	    "identity": "somestreamer",
//	})
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// Level represents the severity level of a log message
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
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

// ParseLevel maps a level name to a Level, defaulting to Info
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Fields holds structured log fields
type Fields map[string]interface{}

// Logger writes leveled, structured log lines
type Logger struct {
	level  Level
	logger *log.Logger
}

// New creates a new Logger writing to stdout
func New(level Level) *Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput creates a new Logger writing to the given destination
func NewWithOutput(level Level, out io.Writer) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(out, "", 0),
	}
}

// Default returns a logger at Info level
func Default() *Logger {
	return New(LevelInfo)
}

// log writes a log message with the specified level. Fields are rendered
// in sorted key order so output is stable.
func (l *Logger) log(level Level, msg string, fields Fields) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format(time.RFC3339)
	output := fmt.Sprintf("[%s] %s: %s", timestamp, level.String(), msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		output += " |"
		for _, k := range keys {
			output += fmt.Sprintf(" %s=%v", k, fields[k])
		}
	}

	l.logger.Println(output)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields Fields) {
	l.log(LevelDebug, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields Fields) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields Fields) {
	l.log(LevelWarn, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields Fields) {
	l.log(LevelError, msg, fields)
}
