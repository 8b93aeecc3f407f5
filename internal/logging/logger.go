// Package logging builds the charmbracelet logger used by the CLI. It is
// configured through DISX86_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	EnvLevel  = "DISX86_LOG_LEVEL"
	EnvPrefix = "DISX86_LOG_PREFIX"
	EnvToFile = "DISX86_LOG_TO_FILE"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// Level reads DISX86_LOG_LEVEL. Unknown or empty values mean info.
func Level() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv(EnvLevel))))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           Level(),
	})

	prefix, ok := os.LookupEnv(EnvPrefix)
	if !ok {
		prefix = "disx86 "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a new logger based on environment variables
// DISX86_LOG_LEVEL: debug, info, warn, error (default: info)
// DISX86_LOG_PREFIX: prefix for log messages (default: "disx86 ")
// DISX86_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv(EnvToFile) == "1" {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("disx86-%s-debug.log", timestamp)

		// Falls back to stderr when the file cannot be created.
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
	}

	return NewLoggerWithWriter(output)
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return Level() <= log.DebugLevel
}
