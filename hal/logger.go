package hal

import (
	"io"

	"github.com/rs/zerolog"

	"ember/kernel"
)

type zerologLogger struct {
	log zerolog.Logger
}

// NewLogger wraps w in a kernel.Logger that emits one structured event per
// kernel log line.
func NewLogger(w io.Writer) kernel.Logger {
	return &zerologLogger{log: zerolog.New(w).With().Timestamp().Logger()}
}

// NewConsoleLogger is NewLogger with human-readable console formatting.
func NewConsoleLogger(w io.Writer) kernel.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return &zerologLogger{log: zerolog.New(cw).With().Timestamp().Logger()}
}

func (l *zerologLogger) WriteLineString(s string) {
	l.log.Info().Msg(s)
}
