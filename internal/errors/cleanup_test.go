package errors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type socket struct {
	err    error
	closed bool
}

func (s *socket) Close() error {
	s.closed = true
	return s.err
}

func TestDeferClose(t *testing.T) {
	t.Run("nil closer", func(t *testing.T) {
		var buf bytes.Buffer
		DeferClose(zerolog.New(&buf), nil, "close socket")
		assert.Zero(t, buf.Len())
	})

	t.Run("clean close is silent", func(t *testing.T) {
		var buf bytes.Buffer
		s := &socket{}

		DeferClose(zerolog.New(&buf), s, "close socket")

		assert.True(t, s.closed)
		assert.Zero(t, buf.Len())
	})

	t.Run("close failure is warned", func(t *testing.T) {
		var buf bytes.Buffer
		s := &socket{err: errors.New("wsa: not a socket")}

		DeferClose(zerolog.New(&buf), s, "close socket")

		assert.True(t, s.closed)
		assert.Contains(t, buf.String(), `"level":"warn"`)
		assert.Contains(t, buf.String(), "wsa: not a socket")
		assert.Contains(t, buf.String(), "close socket")
	})
}
