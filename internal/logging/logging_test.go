package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelFromEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	if got := levelFromEnv(zerolog.InfoLevel); got != zerolog.WarnLevel {
		t.Fatalf("unexpected level: %v", got)
	}

	t.Setenv(EnvLogLevel, "nonsense")
	if got := levelFromEnv(zerolog.InfoLevel); got != zerolog.InfoLevel {
		t.Fatalf("unrecognized level should fall back, got %v", got)
	}

	t.Setenv(EnvLogLevel, "off")
	if got := levelFromEnv(zerolog.InfoLevel); got != zerolog.Disabled {
		t.Fatalf("unexpected level: %v", got)
	}
}

func TestBoolFromEnv(t *testing.T) {
	t.Setenv(EnvLogNoColor, "")
	if boolFromEnv(EnvLogNoColor, true) != true {
		t.Fatalf("empty env should keep fallback")
	}
	t.Setenv(EnvLogNoColor, "true")
	if boolFromEnv(EnvLogNoColor, false) != true {
		t.Fatalf("true not parsed")
	}
	t.Setenv(EnvLogNoColor, "junk")
	if boolFromEnv(EnvLogNoColor, false) != false {
		t.Fatalf("junk should keep fallback")
	}
}

func TestRuntimeAndTestLoggersBuild(t *testing.T) {
	t.Setenv(EnvLogLevel, "disabled")
	logger := Runtime("test-component")
	logger.Info().Msg("never emitted")

	tl := Test(t.Name())
	tl.Debug().Msg("never shown at disabled level")
}
