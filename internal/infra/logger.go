package infra

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages outside infra can accept a logger
// without importing zerolog directly.
type Logger = zerolog.Logger

// NewLogger constructs the service logger. Development gets a console writer
// and debug level; everything else emits JSON at info level.
func NewLogger(appEnv string) Logger {
	return newLogger(os.Stdout, appEnv)
}

func newLogger(out io.Writer, appEnv string) Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "captzio").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger
}

// Component derives a logger tagged with the emitting component.
func Component(logger Logger, name string) Logger {
	return logger.With().Str("component", name).Logger()
}

// LoggerFromContext returns the request scoped logger installed by the HTTP
// logging middleware, or nil when there is none.
func LoggerFromContext(ctx context.Context) *Logger {
	l := zerolog.Ctx(ctx)
	if l == nil || l.GetLevel() == zerolog.Disabled {
		return nil
	}
	return l
}
