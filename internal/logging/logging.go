// Package logging builds the zerolog loggers shared by every component.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for building the base logger.
type Config struct {
	Level   string    // "debug", "info", ...; unknown values fall back to info
	Format  string    // "json" or "console"
	Output  io.Writer // defaults to os.Stdout
	Service string
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// New returns a base logger annotated with the service name.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}
	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}
	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	service := cfg.Service
	if service == "" {
		service = "cinerank"
	}

	return zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str(FieldComponent, component).Logger()
}

// Canonical field names.
const (
	FieldComponent = "component"
	FieldMovieID   = "movie_id"
	FieldTitle     = "title"
	FieldCacheKey  = "cache_key"
	FieldRequestID = "request_id"
)
