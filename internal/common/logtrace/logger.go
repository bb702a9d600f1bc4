// Package logtrace provides logging setup for the CLI and the web shell.
// It integrates with zerolog for structured logging.
package logtrace

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with Unix millisecond timestamps
// writing JSON to stderr at the given level. An unknown level falls back to info.
func InitLogger(level string) {
	initLogger(os.Stderr, level)
}

// InitConsoleLogger initializes the global logger with human-readable output
// for interactive CLI use.
func InitConsoleLogger(level string) {
	initLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}

func initLogger(w io.Writer, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level. Empty or unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
