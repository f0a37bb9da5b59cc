package sdb

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/errors"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// Translator sits between the runtime's debugger agent and its socket. It
// remembers the last path-bearing request it saw arrive and rewrites the next
// reply sent back.
type Translator struct {
	hooks  hook.Installer
	thunks *native.Thunks
	real   win32.Sockets
	logger zerolog.Logger

	mu      sync.Mutex
	pending Command
	armed   bool
	entries []native.Thunk
}

// NewTranslator creates a translator forwarding to real.
func NewTranslator(hooks hook.Installer, thunks *native.Thunks, real win32.Sockets, logger zerolog.Logger) *Translator {
	return &Translator{
		hooks:  hooks,
		thunks: thunks,
		real:   real,
		logger: logger.With().Str("component", "sdb-translator").Logger(),
	}
}

// Setup hooks send and recv as imported by the runtime module. The thunks stay
// alive for the life of the process.
func (t *Translator) Setup(moduleFileName string) error {
	send, err := t.thunks.MakeFor(t, sendEntry)
	if err != nil {
		return err
	}
	recv, err := t.thunks.MakeFor(t, recvEntry)
	if err != nil {
		t.thunks.Release(send.Handle)
		return err
	}

	t.mu.Lock()
	t.entries = append(t.entries, send, recv)
	t.mu.Unlock()

	t.hooks.Install(moduleFileName, "send", send.Address)
	t.hooks.Install(moduleFileName, "recv", recv.Address)
	t.logger.Info().Str("module", moduleFileName).Msg("Translating debugger paths for the emulation host")
	return nil
}

// Pending returns the request awaiting its reply, if any.
func (t *Translator) Pending() (Command, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending, t.armed
}

// Recv is the recv replacement. The received bytes and length are returned
// untouched; a complete header naming a path-bearing request arms the rewrite
// of the next send.
func (t *Translator) Recv(s win32.Socket, buf []byte, flags int32) int32 {
	n := t.real.Recv(s, buf, flags)

	errors.GuardVoid(t.logger, "recv", func() {
		if n < HeaderLen || int(n) > len(buf) {
			return
		}
		h, err := DecodeHeader(buf[:n])
		if err != nil || !Recognized(h.Command) {
			return
		}

		t.mu.Lock()
		t.pending = h.Command
		t.armed = true
		t.mu.Unlock()

		t.logger.Trace().Stringer("command", h.Command).Hex("packet", buf[:n]).Msg("RECV")
	}, nil)

	return n
}

// Send is the send replacement. Without a pending request the buffer is
// forwarded as is; otherwise it is treated as the reply and its path is
// translated. The pending request is cleared either way.
func (t *Translator) Send(s win32.Socket, buf []byte, flags int32) int32 {
	cmd, ok := t.take()
	if !ok {
		return t.real.Send(s, buf, flags)
	}

	return errors.Guard(t.logger, "send", func() int32 {
		out, err := RewriteReply(cmd, buf)
		if err != nil {
			t.logger.Warn().Err(err).Stringer("command", cmd).Msg("Reply does not match the expected layout, sending it unmodified")
			return t.real.Send(s, buf, flags)
		}

		t.logger.Trace().Stringer("command", cmd).Hex("packet", buf).Msg("SEND-ORIG")
		t.logger.Trace().Stringer("command", cmd).Hex("packet", out).Msg("SEND-EDIT")
		return t.real.Send(s, out, flags)
	}, func() int32 {
		return t.real.Send(s, buf, flags)
	})
}

func (t *Translator) take() (Command, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cmd, ok := t.pending, t.armed
	t.pending, t.armed = Command{}, false
	return cmd, ok
}
