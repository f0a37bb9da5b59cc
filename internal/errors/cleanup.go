// Package errors holds the failure boundaries of the bootstrap: closers whose
// errors are only worth a warning, and the guard that keeps panics inside a
// replacement function from reaching the host.
package errors

import (
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes closer and logs a close failure at warn level with msg.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}
