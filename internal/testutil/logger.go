package testutil

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a trace-level logger that discards output, so trace
// paths such as packet dumps still run under test.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(io.Discard).Level(zerolog.TraceLevel)
}

// NewTestLoggerWithOutput returns a trace-level logger writing to t.Log.
func NewTestLoggerWithOutput(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.ConsoleWriter{Out: tWriter{t}, NoColor: true}).
		Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

type tWriter struct{ t *testing.T }

func (w tWriter) Write(p []byte) (int, error) {
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// Capture collects JSON log lines for assertions. Safe for use from the
// goroutines replacement functions run on.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCaptureLogger returns a trace-level logger and the capture behind it.
func NewCaptureLogger(t *testing.T) (zerolog.Logger, *Capture) {
	t.Helper()
	c := &Capture{}
	return zerolog.New(c).Level(zerolog.TraceLevel), c
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns everything logged so far.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
