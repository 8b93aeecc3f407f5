// Package log installs the process-wide slog logger, backed by the
// charmbracelet logger from internal/logging.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"disx86/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
	closer      io.Closer
)

// Setup installs the default slog logger once. logFile, when set, receives
// the output instead of stderr; debug lowers the level and reports the
// caller.
func Setup(logFile string, debug bool) error {
	var err error
	initOnce.Do(func() {
		w := io.Writer(os.Stderr)
		if logFile != "" {
			f, ferr := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if ferr != nil {
				err = fmt.Errorf("failed to open log file: %w", ferr)
				return
			}
			w = f
		}

		lg := logging.NewLoggerWithWriter(w)
		if debug {
			lg.SetLevel(charmlog.DebugLevel)
			lg.SetReportCaller(true)
		}
		closer = lg

		slog.SetDefault(slog.New(lg.Logger))
		initialized.Store(true)
	})
	return err
}

// Close releases the log file opened by Setup.
func Close() error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

func Initialized() bool {
	return initialized.Load()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		} else {
			fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s", name, r, debug.Stack())
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
