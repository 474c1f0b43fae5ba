// Package logging configures structured zerolog output for the edge handler.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is the textual log level accepted from configuration.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty switches from JSON lines to the zerolog console writer.
	Pretty bool

	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Str("service", "portfolio-edge").Logger()
	log.Logger = logger

	// Handlers fall back to the global logger when the request context carries none.
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// FromContext returns the request-scoped logger, or the global one.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// Log Level Guidelines:
//
// Debug: cache hit/miss with key and age, per-source item counts,
// outgoing upstream requests.
//
// Info: startup/shutdown, one access line per request.
//
// Warn: a source degraded to an empty list, cache store errors,
// missing credentials detected at startup.
//
// Error: 5xx responses, recovered panics, server failures.
//
// Context Fields:
//   - request_id: X-Request-ID of the inbound request
//   - source: behance, dribbble or youtube
//   - status: HTTP status code
//   - cache_key: edge cache key
//   - age: age of a cached response
//   - error_class: client, server, network, decode
