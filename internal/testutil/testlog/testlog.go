package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/jsonmux/jsonmux/internal/logging"
)

func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logger := logging.Test(t.Name())
	logger.Debug().Msg("test start")
	return logger
}
