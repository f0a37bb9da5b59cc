package sdb

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/hook/hooktest"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32/win32test"
)

const monoModule = "mono-2.0-bdwgc.dll"

func newTranslator(logger zerolog.Logger) (*Translator, *win32test.Sockets) {
	sockets := &win32test.Sockets{}
	reg := hook.NewRegistry(hooktest.NewPrimitive(), hook.LayeringImmediatePrior, zerolog.Nop())
	return NewTranslator(reg, native.NewThunks(native.NewRecorder()), sockets, logger), sockets
}

// roundTrip feeds one received packet then sends reply, returning what reached
// the real send.
func roundTrip(t *testing.T, tr *Translator, sockets *win32test.Sockets, received, reply []byte) []byte {
	t.Helper()
	sockets.Inbox = append(sockets.Inbox, received)

	buf := make([]byte, 256)
	n := tr.Recv(1, buf, 0)
	require.Equal(t, int32(len(received)), n)
	assert.Equal(t, received, buf[:n], "received bytes must be untouched")

	sent := tr.Send(1, reply, 0)
	last := sockets.LastSent()
	assert.Equal(t, int32(len(last)), sent)
	return last
}

func request(cmd Command) []byte {
	return packet(cmd, 0, nil, nil)
}

func TestTranslator_Setup(t *testing.T) {
	prim := hooktest.NewPrimitive()
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.Nop())
	thunks := native.NewThunks(native.NewRecorder())
	tr := NewTranslator(reg, thunks, &win32test.Sockets{}, zerolog.Nop())

	require.NoError(t, tr.Setup(monoModule))

	active := reg.Active()
	assert.ElementsMatch(t, []string{"recv", "send"}, active[monoModule])
	assert.Equal(t, 2, thunks.Live())
}

func TestTranslator_AssemblyLocation(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{winAssemblyPath}, nil)

	got := roundTrip(t, tr, sockets, request(CmdAssemblyGetLocation), reply)

	assert.Equal(t, packet(CmdAssemblyGetLocation, FlagReply, []string{hostAssemblyPath}, nil), got)
	_, pending := tr.Pending()
	assert.False(t, pending)
}

func TestTranslator_ModuleInfo(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	trailer := []byte{0, 0, 0, 3}
	reply := packet(CmdModuleGetInfo, FlagReply, []string{"base", "scope", winAssemblyPath}, trailer)

	got := roundTrip(t, tr, sockets, request(CmdModuleGetInfo), reply)

	assert.Equal(t, packet(CmdModuleGetInfo, FlagReply, []string{"base", "scope", hostAssemblyPath}, trailer), got)
}

func TestTranslator_PassThroughWithoutPending(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{winAssemblyPath}, nil)

	tr.Send(1, reply, 0)

	assert.Equal(t, reply, sockets.LastSent())
}

func TestTranslator_UninterestingRequestPassesThrough(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{winAssemblyPath}, nil)

	got := roundTrip(t, tr, sockets, request(Command{Set: 1, ID: 3}), reply)

	assert.Equal(t, reply, got)
}

func TestTranslator_ShortReceive(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{winAssemblyPath}, nil)

	got := roundTrip(t, tr, sockets, []byte{1, 2, 3, 4, 5}, reply)
	assert.Equal(t, reply, got)
}

func TestTranslator_ShortReceiveKeepsPending(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	sockets.Inbox = [][]byte{request(CmdAssemblyGetLocation), {1, 2, 3}}

	buf := make([]byte, 64)
	tr.Recv(1, buf, 0)
	tr.Recv(1, buf, 0)

	cmd, pending := tr.Pending()
	require.True(t, pending)
	assert.Equal(t, CmdAssemblyGetLocation, cmd)
}

func TestTranslator_MostRecentRequestWins(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	sockets.Inbox = [][]byte{request(CmdAssemblyGetLocation), request(CmdModuleGetInfo), request(Command{Set: 9, ID: 9})}

	buf := make([]byte, 64)
	for range 3 {
		tr.Recv(1, buf, 0)
	}

	cmd, pending := tr.Pending()
	require.True(t, pending)
	assert.Equal(t, CmdModuleGetInfo, cmd)
}

func TestTranslator_MarkerResetsAfterSend(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{winAssemblyPath}, nil)

	roundTrip(t, tr, sockets, request(CmdAssemblyGetLocation), reply)
	tr.Send(1, reply, 0)

	assert.Equal(t, reply, sockets.LastSent())
}

func TestTranslator_MalformedReplyPassesThroughAndResets(t *testing.T) {
	tr, sockets := newTranslator(zerolog.Nop())
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{"Z"}, nil)

	got := roundTrip(t, tr, sockets, request(CmdAssemblyGetLocation), reply)

	assert.Equal(t, reply, got)
	_, pending := tr.Pending()
	assert.False(t, pending)
}

func TestTranslator_TraceDumps(t *testing.T) {
	var out bytes.Buffer
	tr, sockets := newTranslator(zerolog.New(&out).Level(zerolog.TraceLevel))
	reply := packet(CmdAssemblyGetLocation, FlagReply, []string{winAssemblyPath}, nil)

	roundTrip(t, tr, sockets, request(CmdAssemblyGetLocation), reply)

	logs := out.String()
	assert.Contains(t, logs, `"message":"RECV"`)
	assert.Contains(t, logs, `"message":"SEND-ORIG"`)
	assert.Contains(t, logs, `"message":"SEND-EDIT"`)
	assert.Contains(t, logs, `"command":"21/1"`)
}
