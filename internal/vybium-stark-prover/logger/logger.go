// Package logger provides the shared zerolog logger for the prover pipeline.
//
// Proof bytes go to stdout in the command-line tool, so all logging defaults
// to stderr. Library consumers can swap or disable the logger globally.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger = zerolog.New(output).With().Timestamp().Logger()
}

// Logger returns the configured logger instance
func Logger() zerolog.Logger {
	return logger
}

// SetOutput changes the output of the logger
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Set replaces the global logger
func Set(l zerolog.Logger) {
	logger = l
}

// Disable turns logging off
func Disable() {
	logger = zerolog.Nop()
}
