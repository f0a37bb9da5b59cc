package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Guard runs fn on behalf of a replacement entry point called by the host. A
// panic in fn must never unwind into native frames, so it is recovered, logged,
// and fallback (normally the real function) supplies the result instead.
func Guard[T any](logger zerolog.Logger, entry string, fn func() T, fallback func() T) (result T) {
	panicked := true
	defer func() {
		if !panicked {
			return
		}
		r := recover()
		logger.Error().
			Str("entry", entry).
			Str("panic", fmt.Sprint(r)).
			Bytes("stack", debug.Stack()).
			Msg("Recovered panic in hook, falling back to the original function")
		if fallback != nil {
			result = fallback()
		}
	}()

	result = fn()
	panicked = false
	return result
}

// GuardVoid is Guard for entry points without a result.
func GuardVoid(logger zerolog.Logger, entry string, fn func(), fallback func()) {
	Guard(logger, entry, func() struct{} {
		fn()
		return struct{}{}
	}, func() struct{} {
		if fallback != nil {
			fallback()
		}
		return struct{}{}
	})
}
