package testhelpers

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger routes the global logger, and context loggers that fall back to
// it, to the test output at debug level. The previous logger is restored when
// the test completes.
func SetupLogger(t *testing.T) {
	t.Helper()

	// capture the current global logger so it can be restored on test completion.
	globalLogger := log.Logger
	t.Cleanup(func() {
		log.Logger = globalLogger
		zerolog.DefaultContextLogger = nil
	})

	// set up a logger that writes to the test output
	log.Logger = log.
		Output(zerolog.NewTestWriter(t)).
		Level(zerolog.DebugLevel)

	// unless set, the context logger will not log anything
	zerolog.DefaultContextLogger = &log.Logger
}

// CaptureLog is SetupLogger that also keeps the JSON log lines written during
// the test, so assertions can be made about what was (or was not) logged.
// The buffer is not safe for concurrent writers.
func CaptureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	SetupLogger(t)

	buf := &bytes.Buffer{}
	log.Logger = log.
		Output(zerolog.MultiLevelWriter(zerolog.NewTestWriter(t), buf)).
		Level(zerolog.DebugLevel)

	return buf
}
