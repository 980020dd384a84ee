// Package logging wires the library's default zerolog logger, following
// the env-driven level/format setup the toolbridge-api service uses for
// its own log.Logger: RFC3339Nano timestamps, a console writer for local
// development, JSON otherwise.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger tagged with component="gw2lib". Pretty-printing to
// stderr kicks in when GW2LIB_LOG_PRETTY is set, matching the dev-mode
// switch the example service gates on an ENV variable.
func New() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "gw2lib").Logger()
	if os.Getenv("GW2LIB_LOG_PRETTY") != "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	return logger
}
