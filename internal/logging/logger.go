package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// NewLogger creates the process logger and installs it as the global
// zerolog logger. Output is human readable when stdout is a terminal.
func NewLogger(service, logLevel string) zerolog.Logger {
	logger := newLogger(output(os.Stdout), service, logLevel)
	log.Logger = logger
	return logger
}

func newLogger(w io.Writer, service, logLevel string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return ctx.Logger().Level(level)
}

func output(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339}
	}
	return f
}
