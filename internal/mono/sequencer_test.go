package mono

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venusroot/bootstrap/internal/config"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/hook/hooktest"
	"github.com/venusroot/bootstrap/internal/lifecycle"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/testutil"
	"github.com/venusroot/bootstrap/internal/win32"
	"github.com/venusroot/bootstrap/internal/win32/win32test"
)

const (
	playerModule = "UnityPlayer.dll"
	monoHandle   = win32.Module(0x7FF0000)
	monoPath     = `Z:\game\MonoBleedingEdge\EmbedRuntime\mono-2.0-bdwgc.dll`
	rootDomain   = Domain(0xD0)
)

// fakeRuntime records every call made into the runtime.
type fakeRuntime struct {
	calls        []string
	parsed       [][]string
	debugEnabled bool
	assembly     Assembly
	exception    uintptr
}

func (f *fakeRuntime) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeRuntime) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeRuntime) JitInitVersion(d, v string) Domain {
	f.record("JitInitVersion(%s,%s)", d, v)
	return rootDomain
}
func (f *fakeRuntime) JitParseOptions(argv []string) {
	f.record("JitParseOptions")
	f.parsed = append(f.parsed, argv)
}
func (f *fakeRuntime) ThreadCurrent() Thread {
	f.record("ThreadCurrent")
	return 0x77
}
func (f *fakeRuntime) ThreadSetMain(t Thread) { f.record("ThreadSetMain(%#x)", uintptr(t)) }
func (f *fakeRuntime) DebugEnabled() bool {
	f.record("DebugEnabled")
	return f.debugEnabled
}
func (f *fakeRuntime) DebugInit(fm DebugFormat) { f.record("DebugInit(%d)", fm) }
func (f *fakeRuntime) SetAssembliesPath(p string) { f.record("SetAssembliesPath(%s)", p) }
func (f *fakeRuntime) AssemblyGetRootDir() string { return "C:/game/Managed" }
func (f *fakeRuntime) DomainAssemblyOpen(d Domain, p string) Assembly {
	f.record("DomainAssemblyOpen(%s)", p)
	return f.assembly
}
func (f *fakeRuntime) AssemblyGetImage(Assembly) Image {
	f.record("AssemblyGetImage")
	return 0x1
}
func (f *fakeRuntime) ClassFromName(_ Image, ns, n string) Class {
	f.record("ClassFromName(%s.%s)", ns, n)
	return 0x2
}
func (f *fakeRuntime) ClassGetMethodFromName(_ Class, n string, pc int32) Method {
	f.record("ClassGetMethodFromName(%s,%d)", n, pc)
	return 0x3
}
func (f *fakeRuntime) RuntimeInvoke(Method) uintptr {
	f.record("RuntimeInvoke")
	return f.exception
}
func (f *fakeRuntime) DomainSetConfig(_ Domain, base, file string) {
	f.record("DomainSetConfig(%s,%s)", base, file)
}
func (f *fakeRuntime) ConfigParse(name string) { f.record("ConfigParse(%s)", name) }

type fakeDiscovery struct {
	ownSocket []string
	sendTo    []string
}

func (d *fakeDiscovery) StartWithOwnSocket(ip string, port uint16) error {
	d.ownSocket = append(d.ownSocket, fmt.Sprintf("%s:%d", ip, port))
	return nil
}

func (d *fakeDiscovery) StartWithSendToHook(ip string, port uint16) error {
	d.sendTo = append(d.sendTo, fmt.Sprintf("%s:%d", ip, port))
	return nil
}

type fakeTranslator struct{ modules []string }

func (t *fakeTranslator) Setup(name string) error {
	t.modules = append(t.modules, name)
	return nil
}

type fixture struct {
	seq        *Sequencer
	runtime    *fakeRuntime
	prim       *hooktest.Primitive
	loader     *win32test.Loader
	bus        *lifecycle.Bus
	discovery  *fakeDiscovery
	translator *fakeTranslator
	env        map[string]string
	publishes  int
	binds      int
	logs       *testutil.Capture
}

type option func(*Settings)

func withDebugger(suspend bool) option {
	return func(s *Settings) {
		s.Debugger.Enable = true
		s.Debugger.SuspendOnBoot = suspend
	}
}

func emulated() option {
	return func(s *Settings) { s.Emulated = true }
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	f := &fixture{
		runtime:    &fakeRuntime{assembly: 0x10},
		prim:       hooktest.NewPrimitive(),
		bus:        lifecycle.NewBus(),
		discovery:  &fakeDiscovery{},
		translator: &fakeTranslator{},
		env:        map[string]string{},
	}

	symbols := map[string]native.Address{"LoadLibraryW": 0x1234}
	for i, name := range RequiredExports {
		symbols[name] = native.Address(0x5000 + i*0x10)
	}
	f.loader = &win32test.Loader{
		Symbols:   symbols,
		FileNames: map[win32.Module]string{monoHandle: monoPath},
	}

	settings := Settings{
		Debugger: config.DebuggerConfig{IPAddress: "127.0.0.1", Port: 56000},
		BCLDir:   `C:\game\VenusRootLoader\UnityJitMonoBcl`,
		EntryPoint: EntryPoint{
			AssemblyPath: `C:\game\VenusRootLoader\VenusRootLoader.dll`,
			Namespace:    "VenusRootLoader",
			Class:        "MonoInitEntry",
			Method:       "Main",
		},
		PlayerModule: playerModule,
		GameDir:      `C:\game`,
		ProcessPath:  `C:\game\Bug Fables.exe`,
	}
	for _, o := range opts {
		o(&settings)
	}

	var logger zerolog.Logger
	logger, f.logs = testutil.NewCaptureLogger(t)

	f.bus.Subscribe(func(lifecycle.Event) { f.publishes++ })
	f.seq = NewSequencer(settings, Deps{
		Hooks:      hook.NewRegistry(f.prim, hook.LayeringImmediatePrior, zerolog.Nop()),
		Thunks:     native.NewThunks(native.NewRecorder()),
		Loader:     f.loader,
		Bus:        f.bus,
		Discovery:  f.discovery,
		Translator: f.translator,
		Bind: func(Exports) Functions {
			f.binds++
			return f.runtime
		},
		Getenv: func(k string) (string, bool) {
			v, ok := f.env[k]
			return v, ok
		},
		Logger: logger,
	})
	require.NoError(t, f.seq.Install())
	return f
}

// redirect resolves sym through the hook so exports are captured.
func (f *fixture) redirect(t *testing.T, sym string) native.Address {
	t.Helper()
	addr := f.seq.ResolveSymbol(monoHandle, sym)
	require.NotEqual(t, f.loader.Symbols[sym], addr)
	return addr
}

func TestSequencer_InstallHooksGetProcAddress(t *testing.T) {
	f := newFixture(t)

	assert.NotEqual(t, hooktest.Pristine(playerModule, GetProcAddress), f.prim.Target(playerModule, GetProcAddress))
}

func TestSequencer_ResolveSymbol(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, native.Address(0x1234), f.seq.ResolveSymbol(monoHandle, "LoadLibraryW"))
	assert.Zero(t, f.binds, "uninteresting lookups do not capture exports")

	a := f.redirect(t, SymJitInitVersion)
	b := f.redirect(t, SymJitParseOptions)
	c := f.redirect(t, SymDebugInit)
	assert.Equal(t, a, f.redirect(t, SymJitInitVersion))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Equal(t, 1, f.binds)

	// Non-redirected runtime exports still resolve to the real function.
	assert.Equal(t, f.loader.Symbols[SymRuntimeInvoke], f.seq.ResolveSymbol(monoHandle, SymRuntimeInvoke))
}

func TestSequencer_MissingExports(t *testing.T) {
	f := newFixture(t)
	delete(f.loader.Symbols, SymConfigParse)
	delete(f.loader.Symbols, SymThreadSetMain)

	resolved := f.loader.Symbols[SymJitInitVersion]
	assert.Equal(t, resolved, f.seq.ResolveSymbol(monoHandle, SymJitInitVersion))
	assert.Equal(t, resolved, f.seq.ResolveSymbol(monoHandle, SymJitInitVersion))
	assert.Zero(t, f.binds)
	assert.Contains(t, f.logs.String(), "mono_thread_set_main, mono_config_parse")
}

func TestCaptureExports_MissingExportsError(t *testing.T) {
	loader := &win32test.Loader{Symbols: map[string]native.Address{SymRuntimeInvoke: 0x10}}

	_, err := CaptureExports(loader, monoHandle)

	var missing *MissingExportsError
	require.True(t, errors.As(err, &missing))
	assert.Len(t, missing.Missing, len(RequiredExports)-1)
	assert.NotContains(t, missing.Missing, SymRuntimeInvoke)
}

func TestSequencer_TranslatorArming(t *testing.T) {
	tests := []struct {
		name string
		opts []option
		want []string
	}{
		{"native with debugger", []option{withDebugger(false)}, nil},
		{"emulated without debugger", []option{emulated()}, nil},
		{"emulated with debugger", []option{emulated(), withDebugger(false)}, []string{monoPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			f.redirect(t, SymJitParseOptions)
			f.redirect(t, SymJitInitVersion)

			assert.Equal(t, tt.want, f.translator.modules)
		})
	}
}

func TestSequencer_InitRuntimeOrder(t *testing.T) {
	f := newFixture(t, withDebugger(true))
	f.redirect(t, SymJitInitVersion)

	var publishedAt int
	f.bus.Subscribe(func(lifecycle.Event) { publishedAt = len(f.runtime.calls) })

	d := f.seq.InitRuntime("Unity Root Domain", "v4.0.30319")

	assert.Equal(t, rootDomain, d)
	assert.Equal(t, []string{
		`SetAssembliesPath(C:\game\VenusRootLoader\UnityJitMonoBcl;C:/game/Managed)`,
		"JitParseOptions",
		"DebugEnabled",
		"DebugInit(1)",
		"JitInitVersion(Unity Root Domain,v4.0.30319)",
		"ThreadCurrent",
		"ThreadSetMain(0x77)",
		`DomainSetConfig(C:\game,C:\game\Bug Fables.exe.config)`,
		"ConfigParse()",
		`DomainAssemblyOpen(C:\game\VenusRootLoader\VenusRootLoader.dll)`,
		"AssemblyGetImage",
		"ClassFromName(VenusRootLoader.MonoInitEntry)",
		"ClassGetMethodFromName(Main,0)",
		"RuntimeInvoke",
	}, f.runtime.calls)
	assert.Equal(t, 9, publishedAt, "publish happens after config parsing and before the handoff")
	assert.Equal(t, []string{"127.0.0.1:56000"}, f.discovery.ownSocket)
	assert.Empty(t, f.discovery.sendTo)
	assert.True(t, f.seq.Initialized())
	assert.Equal(t, rootDomain, f.seq.Domain())
}

func TestSequencer_OneShot(t *testing.T) {
	f := newFixture(t, withDebugger(false))
	f.redirect(t, SymJitInitVersion)

	f.seq.InitRuntime("a", "b")
	f.seq.InitRuntime("c", "d")

	assert.Equal(t, 1, f.runtime.count("SetAssembliesPath"))
	assert.Equal(t, 1, f.runtime.count("DomainAssemblyOpen"))
	assert.Equal(t, 1, f.publishes)
	assert.Equal(t, 2, f.runtime.count("JitInitVersion"))
	assert.Equal(t, "JitInitVersion(c,d)", f.runtime.calls[len(f.runtime.calls)-1])
	assert.Len(t, f.discovery.ownSocket, 1)
}

func TestSequencer_ReleasesGetProcAddressOnInit(t *testing.T) {
	f := newFixture(t)
	f.redirect(t, SymJitInitVersion)

	f.seq.InitRuntime("a", "b")

	assert.Equal(t, hooktest.Pristine(playerModule, GetProcAddress), f.prim.Target(playerModule, GetProcAddress))
	assert.Equal(t, []string{playerModule}, f.prim.Closed)
}

func TestSequencer_DebuggerDisabled(t *testing.T) {
	f := newFixture(t)
	f.redirect(t, SymJitInitVersion)

	f.seq.InitRuntime("a", "b")

	assert.Zero(t, f.runtime.count("DebugInit"))
	assert.Equal(t, [][]string{nil}, f.runtime.parsed, "arguments forwarded without additions")
	assert.Empty(t, f.discovery.ownSocket)
	assert.Empty(t, f.discovery.sendTo)
}

func TestSequencer_HostDebugInit(t *testing.T) {
	f := newFixture(t, withDebugger(false))
	f.redirect(t, SymDebugInit)

	f.seq.DebugInit(DebugFormatMono)
	require.True(t, f.seq.DebugInitObserved())
	f.seq.InitRuntime("a", "b")

	assert.Equal(t, 1, f.runtime.count("DebugInit"), "debugger is not initialized twice")
	assert.Zero(t, f.runtime.count("DebugEnabled"))
	assert.Equal(t, []string{"127.0.0.1:56000"}, f.discovery.sendTo)
	assert.Empty(t, f.discovery.ownSocket)
}

func TestSequencer_RuntimeAlreadyDebugging(t *testing.T) {
	f := newFixture(t, withDebugger(false))
	f.runtime.debugEnabled = true
	f.redirect(t, SymJitInitVersion)

	f.seq.InitRuntime("a", "b")

	assert.Zero(t, f.runtime.count("DebugInit"))
}

func TestSequencer_ParseOptionsScenario(t *testing.T) {
	f := newFixture(t, withDebugger(false))
	f.redirect(t, SymJitParseOptions)
	want := "--debugger-agent=transport=dt_socket,server=y,address=127.0.0.1:56000,suspend=n"

	f.seq.ParseJitOptions([]string{"--a"})
	f.seq.ParseJitOptions([]string{"--a"})
	require.Len(t, f.runtime.parsed, 2)
	assert.Equal(t, []string{"--a", want}, f.runtime.parsed[0])
	assert.Equal(t, f.runtime.parsed[0], f.runtime.parsed[1])

	f.seq.InitRuntime("a", "b")
	f.seq.ParseJitOptions([]string{"--b"})

	assert.Equal(t, []string{"--b"}, f.runtime.parsed[len(f.runtime.parsed)-1])
}

func TestSequencer_ParseOptionsKeepsCallerSlice(t *testing.T) {
	f := newFixture(t, withDebugger(false))
	f.redirect(t, SymJitParseOptions)

	argv := make([]string, 1, 4)
	argv[0] = "--a"
	f.seq.ParseJitOptions(argv)

	assert.Equal(t, []string{"--a"}, argv[:1])
	assert.Equal(t, "", argv[:2][1], "caller's backing array is not written")
}

func TestSequencer_OverridePrecedence(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		t.Run(fmt.Sprintf("debugger=%v", enabled), func(t *testing.T) {
			var opts []option
			if enabled {
				opts = append(opts, withDebugger(false))
			}
			f := newFixture(t, opts...)
			f.env["DNSPY_UNITY_DBG2"] = "--debugger-agent=transport=dt_socket,server=y,address=0.0.0.0:1234"
			f.redirect(t, SymJitParseOptions)

			f.seq.ParseJitOptions(nil)

			require.Len(t, f.runtime.parsed, 1)
			assert.Equal(t, []string{f.env["DNSPY_UNITY_DBG2"]}, f.runtime.parsed[0])
			assert.NotContains(t, f.runtime.parsed[0][0], "56000")
		})
	}
}

func TestSequencer_HandoffFailure(t *testing.T) {
	f := newFixture(t)
	f.runtime.assembly = 0
	f.redirect(t, SymJitInitVersion)

	d := f.seq.InitRuntime("a", "b")

	assert.Equal(t, rootDomain, d)
	assert.True(t, f.seq.Initialized())
	assert.Zero(t, f.runtime.count("RuntimeInvoke"))
	assert.Contains(t, f.logs.String(), `"level":"fatal"`)
}

func TestSequencer_EntryPointException(t *testing.T) {
	f := newFixture(t)
	f.runtime.exception = 0xBAD
	f.redirect(t, SymJitInitVersion)

	f.seq.InitRuntime("a", "b")

	assert.Contains(t, f.logs.String(), "Entry point method threw")
	assert.True(t, f.seq.Initialized())
}

func TestDebuggerAgentArg(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DebuggerConfig
		want string
	}{
		{
			name: "no suspend",
			cfg:  config.DebuggerConfig{IPAddress: "127.0.0.1", Port: 56000},
			want: "--debugger-agent=transport=dt_socket,server=y,address=127.0.0.1:56000,suspend=n",
		},
		{
			name: "suspend",
			cfg:  config.DebuggerConfig{IPAddress: "10.0.0.2", Port: 55555, SuspendOnBoot: true},
			want: "--debugger-agent=transport=dt_socket,server=y,address=10.0.0.2:55555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DebuggerAgentArg(tt.cfg))
		})
	}
}

func TestResolveEntryPoint(t *testing.T) {
	ep := ResolveEntryPoint(config.EntrypointConfig{
		Assembly:  "VenusRootLoader/VenusRootLoader.dll",
		Namespace: "VenusRootLoader",
		Class:     "MonoInitEntry",
		Method:    "Main",
	}, "/game/VenusRootLoader")

	assert.Equal(t, "/game/VenusRootLoader/VenusRootLoader/VenusRootLoader.dll", ep.AssemblyPath)
	assert.Equal(t, "MonoInitEntry", ep.Class)
}
