package commands

import (
	"io"

	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to paybill.Logger.
type zerologLogger struct {
	logger zerolog.Logger
}

func newLogger(w io.Writer) paybill.Logger {
	return &zerologLogger{
		logger: zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger(),
	}
}

func (l *zerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
