// Package logging configures zerolog for the seafood-terminal binaries.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Component names used as the "component" field.
const (
	ComponentServer    = "server"
	ComponentCLI       = "cli"
	ComponentDashboard = "dashboard"
	ComponentPipeline  = "pipeline"
	ComponentCache     = "cache"
	ComponentClient    = "api-client"
	ComponentRateLimit = "ratelimit"
	ComponentConfig    = "config"
	ComponentAuth      = "auth"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: JSON).
	Pretty bool

	// Output is the writer logs go to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names
// yield info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: cache hit/miss per dataset, superseded responses, per-request
// details, rate limit state updates.
//
// Info: datasets fetched or loaded from cache, server start/stop, config
// reloads.
//
// Warn: storage failures degraded to cache misses, malformed response
// bodies, throttled requests, retries.
//
// Error: failed fetches, blocked requests, failed config reloads.
//
// Context Fields:
//   - dataset: dataset key
//   - endpoint: API endpoint path
//   - status_code: HTTP status code
//   - error_class: client, server, rate_limit, network
//   - request_id: pipeline fetch id
//   - records: number of records
//   - cache_hit: whether the cache served the dataset
//   - ttl: remaining freshness of a cache entry
