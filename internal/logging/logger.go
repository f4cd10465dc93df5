// Package logging holds the process logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu       sync.Mutex
	instance *log.Logger
)

// ParseLevel maps a config string to a level. Unknown values fall back to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Setup builds the process logger writing to stderr and makes it the
// instance returned by L.
func Setup(level string) *log.Logger {
	return SetupWriter(os.Stderr, level)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level string) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "layermap",
	})
	mu.Lock()
	instance = l
	mu.Unlock()
	return l
}

// L returns the process logger, creating an info-level one on first use.
func L() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = log.NewWithOptions(os.Stderr, log.Options{
			Level:           log.InfoLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          "layermap",
		})
	}
	return instance
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
