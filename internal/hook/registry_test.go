package hook_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/hook/hooktest"
	"github.com/venusroot/bootstrap/internal/native"
)

const (
	player = `C:\Games\Bug Fables\UnityPlayer.dll`
	mono   = `C:\Games\Bug Fables\MonoBleedingEdge\EmbedRuntime\mono-2.0-bdwgc.dll`
)

func TestRegistry_InstallRecordsOriginal(t *testing.T) {
	prim := hooktest.NewPrimitive()
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.Nop())

	reg.Install(player, "CreateFileW", 0x1000)

	assert.Equal(t, native.Address(0x1000), prim.Target(player, "CreateFileW"))
	orig, ok := reg.Original(player, "CreateFileW")
	require.True(t, ok)
	assert.Equal(t, hooktest.Pristine(player, "CreateFileW"), orig)
	assert.Equal(t, map[string][]string{player: {"CreateFileW"}}, reg.Active())
}

func TestRegistry_OneSessionPerModule(t *testing.T) {
	prim := hooktest.NewPrimitive()
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.Nop())

	reg.Install(player, "CreateFileW", 0x1000)
	reg.Install(player, "GetProcAddress", 0x2000)
	reg.Install(mono, "send", 0x3000)

	assert.Equal(t, 1, prim.OpenCount[player])
	assert.Equal(t, 1, prim.OpenCount[mono])
	assert.Equal(t, 2, prim.OpenSessions())
}

func TestRegistry_UninstallRestoresAndClosesEmptySession(t *testing.T) {
	prim := hooktest.NewPrimitive()
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.Nop())

	reg.Install(mono, "send", 0x1000)
	reg.Install(mono, "recv", 0x2000)

	reg.Uninstall(mono, "send")
	assert.Equal(t, hooktest.Pristine(mono, "send"), prim.Target(mono, "send"))
	assert.Equal(t, 1, prim.OpenSessions())
	assert.Empty(t, prim.Closed)

	reg.Uninstall(mono, "recv")
	assert.Equal(t, hooktest.Pristine(mono, "recv"), prim.Target(mono, "recv"))
	assert.Equal(t, 0, prim.OpenSessions())
	assert.Equal(t, []string{mono}, prim.Closed)
	assert.Empty(t, reg.Active())

	// A new install after closing opens a fresh session.
	reg.Install(mono, "send", 0x3000)
	assert.Equal(t, 2, prim.OpenCount[mono])
}

func TestRegistry_UninstallIsIdempotent(t *testing.T) {
	prim := hooktest.NewPrimitive()
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.Nop())

	assert.NotPanics(t, func() {
		reg.Uninstall(player, "CreateFileW")
	})

	reg.Install(player, "CreateFileW", 0x1000)
	reg.Uninstall(player, "CreateFileW")
	assert.NotPanics(t, func() {
		reg.Uninstall(player, "CreateFileW")
		reg.Uninstall(player, "ReadFile")
	})
	assert.Equal(t, []string{player}, prim.Closed)
}

func TestRegistry_OpenFailureIsLoggedNoop(t *testing.T) {
	prim := hooktest.NewPrimitive()
	prim.FailOpen[player] = true
	var buf bytes.Buffer
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.New(&buf))

	reg.Install(player, "CreateFileW", 0x1000)

	assert.Empty(t, reg.Active())
	assert.Contains(t, buf.String(), "Failed to open interception session")
	assert.Contains(t, buf.String(), "cannot open")
}

func TestRegistry_ReplaceFailureIsLoggedNoop(t *testing.T) {
	prim := hooktest.NewPrimitive()
	prim.FailSwap["sendto"] = true
	var buf bytes.Buffer
	reg := hook.NewRegistry(prim, hook.LayeringImmediatePrior, zerolog.New(&buf))

	reg.Install(player, "sendto", 0x1000)

	_, ok := reg.Original(player, "sendto")
	assert.False(t, ok)
	assert.Equal(t, 0, prim.OpenSessions())
	assert.Contains(t, buf.String(), "Failed to hook function")
}

func TestRegistry_Layering(t *testing.T) {
	tests := []struct {
		name     string
		layering hook.Layering
		wantBack func() native.Address
	}{
		{
			name:     "immediate prior restores the inner replacement",
			layering: hook.LayeringImmediatePrior,
			wantBack: func() native.Address { return 0x1000 },
		},
		{
			name:     "preserve original restores the pre-hook function",
			layering: hook.LayeringPreserveOriginal,
			wantBack: func() native.Address { return hooktest.Pristine(player, "CreateFileW") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prim := hooktest.NewPrimitive()
			reg := hook.NewRegistry(prim, tt.layering, zerolog.Nop())

			reg.Install(player, "CreateFileW", 0x1000)
			reg.Install(player, "CreateFileW", 0x2000)
			reg.Uninstall(player, "CreateFileW")

			assert.Equal(t, tt.wantBack(), prim.Target(player, "CreateFileW"))
			assert.Equal(t, 0, prim.OpenSessions())
		})
	}
}

func TestParseLayering(t *testing.T) {
	l, err := hook.ParseLayering("")
	require.NoError(t, err)
	assert.Equal(t, hook.LayeringImmediatePrior, l)

	l, err = hook.ParseLayering("preserve-original")
	require.NoError(t, err)
	assert.Equal(t, hook.LayeringPreserveOriginal, l)
	assert.Equal(t, "preserve-original", l.String())

	_, err = hook.ParseLayering("outermost")
	assert.Error(t, err)
}

func TestRegistry_TraceListsActiveHooks(t *testing.T) {
	var buf bytes.Buffer
	reg := hook.NewRegistry(hooktest.NewPrimitive(), hook.LayeringImmediatePrior,
		zerolog.New(&buf).Level(zerolog.TraceLevel))

	reg.Install(player, "GetProcAddress", 0x1000)

	assert.Contains(t, buf.String(), "Active hooks")
	assert.Contains(t, buf.String(), "GetProcAddress")
}
