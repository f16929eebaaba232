package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gffbss/hamster-cli/config"
)

// loggers holds the command line client logger and the logger handed to the
// fact store.
type loggers struct {
	client *slog.Logger
	lib    *slog.Logger
	file   *os.File
}

// newLoggers sets up the client and lib loggers from the client configuration.
// Output goes to console and/or the log file as configured, and is discarded
// when neither is enabled.
func newLoggers(cfg config.ClientConfig, console io.Writer) (*loggers, error) {
	l := &loggers{}

	var writers []io.Writer
	if cfg.LogConsole {
		writers = append(writers, console)
	}
	if cfg.LogFile {
		f, err := os.OpenFile(cfg.LogFilename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		l.file = f
		writers = append(writers, f)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	newLogger := func(prefix string) *slog.Logger {
		return slog.New(log.NewWithOptions(w, log.Options{
			Level:           cfg.LogLevel,
			Prefix:          prefix,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		}))
	}
	l.client = newLogger("hamster-cli")
	l.lib = newLogger("hamster-lib")
	return l, nil
}

// Close closes the log file, if any.
func (l *loggers) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
