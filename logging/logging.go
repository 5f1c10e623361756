// Package logging configures the global zerolog logger for the server and
// CLI and hands out request-scoped loggers.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Development gets a human-readable
// console writer; every other env logs JSON with caller information.
func Init(service, env, level string) {
	InitWriter(os.Stdout, service, env, level)
}

// InitWriter is Init with an explicit output.
func InitWriter(out io.Writer, service, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if env == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("service", service).
			Logger()
		return
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}

// FromContext returns the global logger tagged with the chi request ID,
// when there is one.
func FromContext(ctx context.Context) *zerolog.Logger {
	logger := log.With().Logger()

	if id := middleware.GetReqID(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}
	return &logger
}
