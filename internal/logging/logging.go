// Package logging builds the zerolog logger shared by all components.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a logger writing to stdout. Format is "json" or "console".
func New(level int, format string) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if format != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(writer).
		Level(zerolog.Level(level)).
		With().
		Timestamp().
		Logger()
}
