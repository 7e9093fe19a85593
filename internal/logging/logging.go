// Package logging sets up the process-wide structured logger used by
// the CLI and by background workers (indexer, watcher, reindex).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global, process-wide logger.
var Logger zerolog.Logger

// Level mirrors the handful of levels the engine actually uses.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls Init.
type Config struct {
	Level  Level
	JSON   bool
	Output io.Writer
}

// Init installs the global logger. It runs once with defaults at
// package init, and again from cmd/sunder's openEngine with the
// loaded config.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.JSON {
		Logger = zerolog.New(output).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

func init() {
	// Sensible default so library callers (and tests) that never call
	// Init still get readable output instead of a zero-value no-op logger.
	Init(Config{Level: InfoLevel})
}

// Component returns a child logger tagged with which engine component
// emitted the line — indexer, watcher, search, graphbuilder, etc.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
