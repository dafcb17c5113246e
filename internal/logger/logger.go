// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tessro/cadence/internal/config"
)

// Log is the process logger. It discards everything until Init is called.
var Log = zerolog.Nop()

// Init configures Log from cfg. Output goes to cfg.File, or to stderr when
// File is "-" or "stderr". verbose forces debug level. The returned closer
// releases the log file.
func Init(cfg config.LogConfig, verbose bool) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.File {
	case "-", "stderr":
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	}

	Log = zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = Log
	Log.Debug().Str("file", cfg.File).Str("level", level.String()).Msg("logger initialized")
	return closer, nil
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
