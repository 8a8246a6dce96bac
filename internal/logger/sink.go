package logger

import "github.com/rs/zerolog"

// Sink adapts a zerolog.Logger to the transfer engine's logging interface.
// keyvals are alternating field names and values.
type Sink struct {
	log zerolog.Logger
}

func NewSink(l zerolog.Logger) *Sink {
	return &Sink{log: l}
}

func (s *Sink) Info(msg string, keyvals ...any) {
	s.log.Info().Fields(keyvals).Msg(msg)
}

func (s *Sink) Error(msg string, err error, keyvals ...any) {
	s.log.Error().Stack().Err(err).Fields(keyvals).Msg(msg)
}
