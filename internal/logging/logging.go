package logging

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "JSONMUX_LOG_LEVEL"
	EnvLogTimestamp = "JSONMUX_LOG_TIMESTAMP"
	EnvLogNoColor   = "JSONMUX_LOG_NOCOLOR"
)

// Runtime builds the process logger and installs it as the zerolog
// global. Level, timestamps and color are overridable via env.
func Runtime(component string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    boolFromEnv(EnvLogNoColor, false),
	}
	ctx := zerolog.New(output).
		Level(levelFromEnv(zerolog.InfoLevel)).
		With().
		Str("component", component)
	if boolFromEnv(EnvLogTimestamp, true) {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger
}

// Test returns a debug-level logger without timestamps for test output.
func Test(name string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	return zerolog.New(output).
		Level(levelFromEnv(zerolog.DebugLevel)).
		With().
		Str("test", name).
		Logger()
}

func levelFromEnv(fallback zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled
	default:
		return fallback
	}
}

func boolFromEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
