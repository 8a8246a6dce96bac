package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

// Options selects level, encoding and destination of a logger
type Options struct {
	Level string
	// Format is "console" (default) or "json"
	Format string
	Output io.Writer
}

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = New(Options{Level: "info"})
}

// New builds a logger with timestamps. An unknown level falls back to info with a warning.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	level, err := parseLevel(opts.Level)
	l := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
	if err != nil {
		l.Warn().Str("level", opts.Level).Msg("invalid log level, defaulting to info")
	}
	return l
}

// Configure replaces the global logger
func Configure(opts Options) {
	Log = New(opts)
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := parseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
	}
	Log = Log.Level(level)
}

func parseLevel(levelStr string) (zerolog.Level, error) {
	if strings.TrimSpace(levelStr) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, err
	}
	return level, nil
}
