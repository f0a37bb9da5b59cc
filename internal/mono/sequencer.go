package mono

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/config"
	"github.com/venusroot/bootstrap/internal/constants"
	"github.com/venusroot/bootstrap/internal/errors"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/lifecycle"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// GetProcAddress is the hooked symbol-resolution function.
const GetProcAddress = "GetProcAddress"

const (
	debuggerAgentPrefix = "--debugger-agent=transport=dt_socket,server=y,address="
	debuggerNoSuspend   = ",suspend=n"
)

// Discovery advertises the debugger endpoint to IDEs.
type Discovery interface {
	StartWithOwnSocket(ip string, port uint16) error
	StartWithSendToHook(ip string, port uint16) error
}

// PathTranslator rewrites debugger traffic of a module for the emulation host.
type PathTranslator interface {
	Setup(moduleFileName string) error
}

// EntryPoint names the managed method control is handed to.
type EntryPoint struct {
	AssemblyPath string
	Namespace    string
	Class        string
	Method       string
}

// Settings configures a Sequencer.
type Settings struct {
	Debugger config.DebuggerConfig
	// BCLDir is searched for assemblies ahead of the runtime's root dir.
	BCLDir     string
	EntryPoint EntryPoint
	// PlayerModule imports GetProcAddress.
	PlayerModule string
	GameDir      string
	ProcessPath  string
	// Emulated is set when running under an emulation layer such as Wine.
	Emulated bool
}

// Deps are the collaborators of a Sequencer.
type Deps struct {
	Hooks      hook.Installer
	Thunks     *native.Thunks
	Loader     win32.Loader
	Bus        *lifecycle.Bus
	Discovery  Discovery
	Translator PathTranslator
	Bind       Binder
	// Getenv defaults to os.LookupEnv.
	Getenv func(key string) (string, bool)
	Logger zerolog.Logger
}

const (
	stateIdle int32 = iota
	stateInitializing
	stateInitialized
)

// Sequencer seizes control of the runtime's startup. The player resolves the
// runtime's exports through GetProcAddress; the sequencer answers three of
// those lookups with its own replacements and performs the one-time startup
// work the first time the runtime is initialized through them.
type Sequencer struct {
	settings Settings
	deps     Deps
	logger   zerolog.Logger

	exportsMu sync.Mutex
	captured  bool
	fns       Functions

	debugInitObserved atomic.Bool
	state             atomic.Int32
	domain            Domain

	thunks    map[string]native.Thunk
	entry     native.Thunk
	installed atomic.Bool
	sub       lifecycle.Subscription
}

// NewSequencer creates a sequencer. Call Install to start intercepting.
func NewSequencer(settings Settings, deps Deps) *Sequencer {
	if deps.Getenv == nil {
		deps.Getenv = os.LookupEnv
	}
	return &Sequencer{
		settings: settings,
		deps:     deps,
		logger:   deps.Logger.With().Str("component", "mono-sequencer").Logger(),
		thunks:   make(map[string]native.Thunk),
	}
}

// Install creates the replacement entry points, subscribes to the lifecycle
// bus and hooks the player's GetProcAddress.
func (s *Sequencer) Install() error {
	for _, sym := range []string{SymJitInitVersion, SymJitParseOptions, SymDebugInit} {
		th, err := s.deps.Thunks.MakeFor(s, entryBuilders[sym])
		if err != nil {
			s.releaseThunks()
			return err
		}
		s.thunks[sym] = th
	}

	entry, err := s.deps.Thunks.MakeFor(s, entryBuilders[GetProcAddress])
	if err != nil {
		s.releaseThunks()
		return err
	}
	s.entry = entry

	s.sub = s.deps.Bus.Subscribe(s.HandleLifecycle)
	s.logger.Info().Msg("Bootstrapping the runtime")
	s.deps.Hooks.Install(s.settings.PlayerModule, GetProcAddress, entry.Address)
	s.installed.Store(true)
	return nil
}

// HandleLifecycle releases the GetProcAddress hook once the runtime
// initializes; no further lookups need redirecting.
func (s *Sequencer) HandleLifecycle(ev lifecycle.Event) {
	if ev.Kind != lifecycle.RuntimeInitializing || !s.installed.CompareAndSwap(true, false) {
		return
	}
	s.deps.Hooks.Uninstall(s.settings.PlayerModule, GetProcAddress)
	s.deps.Thunks.Release(s.entry.Handle)
	s.logger.Debug().Msg("Released GetProcAddress hook")
}

// Initialized reports whether the terminal state was reached.
func (s *Sequencer) Initialized() bool {
	return s.state.Load() == stateInitialized
}

// DebugInitObserved reports whether the host called mono_debug_init itself.
func (s *Sequencer) DebugInitObserved() bool {
	return s.debugInitObserved.Load()
}

// Domain returns the root domain once initialized.
func (s *Sequencer) Domain() Domain {
	if !s.Initialized() {
		return 0
	}
	return s.domain
}

// ResolveSymbol is the GetProcAddress replacement. Lookups of the three
// redirected runtime symbols return the sequencer's replacements; everything
// else resolves normally.
func (s *Sequencer) ResolveSymbol(module win32.Module, symbol string) native.Address {
	resolved := s.deps.Loader.GetProcAddress(module, symbol)

	return errors.Guard(s.logger, GetProcAddress, func() native.Address {
		th, ok := s.thunks[symbol]
		if !ok {
			return resolved
		}
		if !s.captureExports(module) {
			return resolved
		}

		s.logger.Info().Str("symbol", symbol).Msg("Redirecting runtime symbol")
		return th.Address
	}, func() native.Address {
		return resolved
	})
}

// captureExports binds the runtime's exports on first use and arms the path
// translator when needed. It reports whether the exports are usable.
func (s *Sequencer) captureExports(module win32.Module) bool {
	s.exportsMu.Lock()
	defer s.exportsMu.Unlock()

	if s.captured {
		return s.fns != nil
	}
	s.captured = true

	s.logger.Info().Msg("Loading runtime exports")
	exports, err := CaptureExports(s.deps.Loader, module)
	if err != nil {
		s.logger.Error().Err(err).Msg("Runtime exports unavailable, leaving startup untouched")
		return false
	}
	s.fns = s.deps.Bind(exports)

	if s.settings.Emulated && s.settings.Debugger.Enable {
		name, err := s.deps.Loader.GetModuleFileName(module)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Cannot resolve runtime module path, debugger paths stay untranslated")
			return true
		}
		if err := s.deps.Translator.Setup(name); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to arm the debugger path translator")
		}
	}
	return true
}

// InitRuntime is the mono_jit_init_version replacement.
func (s *Sequencer) InitRuntime(domainName, runtimeVersion string) Domain {
	if !s.state.CompareAndSwap(stateIdle, stateInitializing) {
		return s.fns.JitInitVersion(domainName, runtimeVersion)
	}

	return errors.Guard(s.logger, SymJitInitVersion, func() Domain {
		return s.initRuntime(domainName, runtimeVersion)
	}, func() Domain {
		// A panic mid-sequence still ends in the terminal state.
		defer s.state.Store(stateInitialized)
		if s.domain == 0 {
			s.domain = s.fns.JitInitVersion(domainName, runtimeVersion)
		}
		return s.domain
	})
}

func (s *Sequencer) initRuntime(domainName, runtimeVersion string) Domain {
	s.logger.Info().
		Str("domain", domainName).
		Str("runtime_version", runtimeVersion).
		Msg("Initializing the runtime")

	s.setAssembliesPath()
	s.ParseJitOptions(nil)
	s.initDebuggerIfNeeded()

	dbg := s.settings.Debugger
	if dbg.Enable && dbg.SuspendOnBoot {
		s.logger.Info().Msg("Waiting until a debugger is attached...")
	}
	s.domain = s.fns.JitInitVersion(domainName, runtimeVersion)
	if dbg.Enable && dbg.SuspendOnBoot {
		s.logger.Info().Msg("Debugger attached, resuming boot")
	}

	s.logger.Info().Msg("Setting the runtime main thread")
	s.fns.ThreadSetMain(s.fns.ThreadCurrent())
	s.setupConfigs()

	s.startDiscovery()
	s.deps.Bus.Publish(s, lifecycle.RuntimeInitializing)
	s.handOff()

	s.state.Store(stateInitialized)
	return s.domain
}

func (s *Sequencer) setAssembliesPath() {
	path := s.settings.BCLDir + ";" + s.fns.AssemblyGetRootDir()
	s.logger.Info().Str("path", path).Msg("Setting runtime assemblies path")
	s.fns.SetAssembliesPath(path)
}

func (s *Sequencer) initDebuggerIfNeeded() {
	if !s.settings.Debugger.Enable || s.debugInitObserved.Load() || s.fns.DebugEnabled() {
		return
	}
	s.logger.Info().Msg("Initializing the runtime debugger")
	s.fns.DebugInit(DebugFormatMono)
}

func (s *Sequencer) setupConfigs() {
	configFile := s.settings.ProcessPath + ".config"
	s.logger.Info().
		Str("base_dir", s.settings.GameDir).
		Str("config_file", configFile).
		Msg("Setting runtime config paths")
	s.fns.DomainSetConfig(s.domain, s.settings.GameDir, configFile)
	s.fns.ConfigParse("")
}

// startDiscovery picks the advertisement strategy. A host that initialized the
// debugger itself is a development player that already advertises over its
// own sendto; otherwise nothing does and a socket of our own is needed.
func (s *Sequencer) startDiscovery() {
	dbg := s.settings.Debugger
	if !dbg.Enable {
		return
	}

	var err error
	if s.debugInitObserved.Load() {
		err = s.deps.Discovery.StartWithSendToHook(dbg.IPAddress, dbg.Port)
	} else {
		err = s.deps.Discovery.StartWithOwnSocket(dbg.IPAddress, dbg.Port)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to start debugger discovery")
	}
}

func (s *Sequencer) handOff() {
	ep := s.settings.EntryPoint
	log := s.logger.With().Str("assembly", ep.AssemblyPath).Logger()

	log.Info().Msg("Loading entry point assembly")
	asm := s.fns.DomainAssemblyOpen(s.domain, ep.AssemblyPath)
	if asm == 0 {
		log.WithLevel(zerolog.FatalLevel).Msg("Failed to load the entry point assembly into the runtime domain")
		return
	}

	img := s.fns.AssemblyGetImage(asm)
	class := s.fns.ClassFromName(img, ep.Namespace, ep.Class)
	if class == 0 {
		log.Error().Str("class", ep.Namespace+"."+ep.Class).Msg("Entry point class not found")
		return
	}
	method := s.fns.ClassGetMethodFromName(class, ep.Method, 0)
	if method == 0 {
		log.Error().Str("method", ep.Method).Msg("Entry point method not found")
		return
	}

	log.Info().Msg("Invoking entry point method")
	if exc := s.fns.RuntimeInvoke(method); exc != 0 {
		log.Error().Str("exception", native.Address(exc).String()).Msg("Entry point method threw")
	}
}

// ParseJitOptions is the mono_jit_parse_options replacement. Before the
// terminal state it appends one debugger-agent argument when one is wanted.
func (s *Sequencer) ParseJitOptions(argv []string) {
	if s.Initialized() {
		s.fns.JitParseOptions(argv)
		return
	}

	errors.GuardVoid(s.logger, SymJitParseOptions, func() {
		extra, ok := s.debuggerAgentArg()
		if !ok {
			s.fns.JitParseOptions(argv)
			return
		}

		grown := make([]string, len(argv), len(argv)+1)
		copy(grown, argv)
		grown = append(grown, extra)

		s.logger.Info().Str("option", extra).Msg("Adding runtime options")
		s.fns.JitParseOptions(grown)
	}, func() {
		s.fns.JitParseOptions(argv)
	})
}

func (s *Sequencer) debuggerAgentArg() (string, bool) {
	if override, ok := s.deps.Getenv(constants.EnvDebuggerAgentOverride); ok {
		s.logger.Info().Str("variable", constants.EnvDebuggerAgentOverride).Msg("Debugger options overridden by the environment")
		return override, true
	}
	if !s.settings.Debugger.Enable {
		return "", false
	}
	return DebuggerAgentArg(s.settings.Debugger), true
}

// DebugInit is the mono_debug_init replacement.
func (s *Sequencer) DebugInit(format DebugFormat) {
	s.logger.Info().Msg("Host initialized the runtime debugger")
	s.debugInitObserved.Store(true)
	s.fns.DebugInit(format)
}

// DebuggerAgentArg synthesizes the runtime's debugger-agent option.
func DebuggerAgentArg(dbg config.DebuggerConfig) string {
	var b strings.Builder
	b.WriteString(debuggerAgentPrefix)
	ip := dbg.IPAddress
	if parsed := net.ParseIP(ip); parsed != nil {
		ip = parsed.String()
	}
	b.WriteString(net.JoinHostPort(ip, strconv.Itoa(int(dbg.Port))))
	if !dbg.SuspendOnBoot {
		b.WriteString(debuggerNoSuspend)
	}
	return b.String()
}

// ResolveEntryPoint builds the managed entry point from configuration,
// resolving the assembly path against root.
func ResolveEntryPoint(cfg config.EntrypointConfig, root string) EntryPoint {
	path := cfg.Assembly
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return EntryPoint{
		AssemblyPath: path,
		Namespace:    cfg.Namespace,
		Class:        cfg.Class,
		Method:       cfg.Method,
	}
}

func (s *Sequencer) releaseThunks() {
	for sym, th := range s.thunks {
		s.deps.Thunks.Release(th.Handle)
		delete(s.thunks, sym)
	}
}
