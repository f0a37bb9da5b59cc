// Package bootstrap wires the bootstrap's components together and installs
// the initial hooks on the player module.
package bootstrap

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/config"
	"github.com/venusroot/bootstrap/internal/constants"
	"github.com/venusroot/bootstrap/internal/discovery"
	"github.com/venusroot/bootstrap/internal/filehook"
	"github.com/venusroot/bootstrap/internal/gamectx"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/lifecycle"
	"github.com/venusroot/bootstrap/internal/logging"
	"github.com/venusroot/bootstrap/internal/mono"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/sdb"
	"github.com/venusroot/bootstrap/internal/unity/bootconfig"
	"github.com/venusroot/bootstrap/internal/unity/playerlogs"
	"github.com/venusroot/bootstrap/internal/win32"
	"github.com/venusroot/bootstrap/pkg/version"
)

// Host carries the host functions and interception machinery the components
// run on. Production uses the Windows implementations; tests use fakes.
type Host struct {
	Primitive hook.Primitive
	Callbacks native.CallbackFactory
	Loader    win32.Loader
	Files     win32.Files
	Sockets   win32.Sockets
	Bind      mono.Binder
	// Dial overrides the discovery socket.
	Dial func() (net.PacketConn, error)
	// Getenv defaults to os.LookupEnv.
	Getenv func(key string) (string, bool)
	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer
}

// Bootstrap is a running bootstrap.
type Bootstrap struct {
	Config    *config.BootstrapConfig
	Game      gamectx.Context
	Logger    zerolog.Logger
	SessionID string

	Registry   *hook.Registry
	Bus        *lifecycle.Bus
	Files      *filehook.Multiplexer
	PlayerLogs *playerlogs.Mirror
	BootConfig *bootconfig.Customizer
	Translator *sdb.Translator
	Discovery  *discovery.Announcer
	Sequencer  *mono.Sequencer

	closeOnce sync.Once
	logFile   io.Closer
}

// Start loads the configuration from the game directory, builds every
// component and hooks the player's GetProcAddress. A disabled configuration
// yields a Bootstrap with no hooks installed.
func Start(game gamectx.Context, host Host) (*Bootstrap, error) {
	loader := config.NewLoader(game.GameDir)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	logger, logFile, err := logging.Open(logging.Config{
		Level:    cfg.Logging.Level,
		Pretty:   cfg.Logging.Pretty,
		Output:   host.LogOutput,
		FilePath: loader.Resolve(cfg.Logging.File),
	})
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("session", sessionID).Logger()

	b := &Bootstrap{
		Config:    cfg,
		Game:      game,
		Logger:    logger,
		SessionID: sessionID,
		logFile:   logFile,
	}

	logger.Info().
		Stringer("version", version.Get()).
		Str("content_root", loader.ContentRoot()).
		Str("config", loader.ConfigPath()).
		Msg("Bootstrap starting")

	if cfg.Disabled {
		logger.Info().Msg("Bootstrap disabled by configuration")
		return b, nil
	}

	if err := b.wire(loader, host); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bootstrap) wire(loader *config.Loader, host Host) error {
	cfg := b.Config
	game := b.Game

	// Validated at load.
	layering, _ := hook.ParseLayering(cfg.Hooks.Layering)

	b.Registry = hook.NewRegistry(host.Primitive, layering, b.Logger)
	b.Bus = lifecycle.NewBus()
	thunks := native.NewThunks(host.Callbacks)

	b.Files = filehook.New(game.PlayerModule, b.Registry, thunks, host.Files, b.Logger)
	if err := b.Files.Install(); err != nil {
		return fmt.Errorf("failed to install file hook: %w", err)
	}
	b.Bus.Subscribe(b.Files.HandleLifecycle)

	b.PlayerLogs = playerlogs.New(game.PlayerModule, cfg.Logging.IncludeUnityLogs, b.Files, b.Registry, thunks, host.Files, b.Logger)
	if err := b.PlayerLogs.Install(); err != nil {
		return fmt.Errorf("failed to install player log mirror: %w", err)
	}
	b.Bus.Subscribe(b.PlayerLogs.HandleLifecycle)

	if bootconfig.Configured(cfg.BootConfig) {
		b.BootConfig = bootconfig.New(game.DataDir, game.PlayerModule, cfg.BootConfig, b.Files, b.Registry, thunks, host.Files, b.Logger)
		if err := b.BootConfig.Install(); err != nil {
			return fmt.Errorf("failed to install boot.config customizer: %w", err)
		}
		b.Bus.Subscribe(b.BootConfig.HandleLifecycle)
	}

	b.Translator = sdb.NewTranslator(b.Registry, thunks, host.Sockets, b.Logger)

	b.Discovery = discovery.New(discovery.Settings{
		PlayerModule: game.PlayerModule,
		ProjectName:  constants.ProjectName,
	}, discovery.Deps{
		Hooks:   b.Registry,
		Thunks:  thunks,
		Sockets: host.Sockets,
		Dial:    host.Dial,
		Getenv:  host.Getenv,
		Logger:  b.Logger,
	})

	b.Sequencer = mono.NewSequencer(mono.Settings{
		Debugger:     cfg.Debugger,
		BCLDir:       loader.Resolve(cfg.Runtime.BCLDir),
		EntryPoint:   mono.ResolveEntryPoint(cfg.Entrypoint, loader.ContentRoot()),
		PlayerModule: game.PlayerModule,
		GameDir:      game.GameDir,
		ProcessPath:  game.ProcessPath,
		Emulated:     game.Emulated,
	}, mono.Deps{
		Hooks:      b.Registry,
		Thunks:     thunks,
		Loader:     host.Loader,
		Bus:        b.Bus,
		Discovery:  b.Discovery,
		Translator: b.Translator,
		Bind:       host.Bind,
		Getenv:     host.Getenv,
		Logger:     b.Logger,
	})
	if err := b.Sequencer.Install(); err != nil {
		return fmt.Errorf("failed to install runtime sequencer: %w", err)
	}

	return nil
}

// Close stops discovery and closes the log file. Installed hooks stay in
// place; the process owns them until it exits.
func (b *Bootstrap) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.Discovery != nil {
			b.Discovery.Stop()
			b.Discovery.Wait()
		}
		if b.logFile != nil {
			err = b.logFile.Close()
		}
	})
	return err
}
