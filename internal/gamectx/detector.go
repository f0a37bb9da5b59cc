// Package gamectx detects where the game the bootstrap was injected into
// lives and what it runs on.
package gamectx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/venusroot/bootstrap/internal/constants"
)

// Context describes the host game process.
type Context struct {
	// ProcessPath is the full path of the game executable.
	ProcessPath string
	// GameDir is the directory holding the executable.
	GameDir string
	// DataDir is the player data directory, <exe stem>_Data.
	DataDir string
	// PlayerModule is the file name of the module that embeds the runtime.
	PlayerModule string
	// Emulated is set when the process runs under a Windows emulation layer.
	Emulated bool
}

// Detector detects the game execution context.
type Detector struct {
	logger   zerolog.Logger
	exe      func(ctx context.Context) (string, error)
	emulated func() bool
}

// NewDetector creates a detector for the current process.
func NewDetector(logger zerolog.Logger) *Detector {
	return &Detector{
		logger:   logger.With().Str("component", "game_context").Logger(),
		exe:      currentExe,
		emulated: emulationLayer,
	}
}

// Detect resolves the game execution context.
func (d *Detector) Detect(ctx context.Context) (Context, error) {
	exe, err := d.exe(ctx)
	if err != nil {
		return Context{}, fmt.Errorf("failed to resolve process executable: %w", err)
	}

	gc := FromProcessPath(exe, constants.PlayerModule, d.emulated())

	d.logger.Info().
		Str("process", gc.ProcessPath).
		Str("game_dir", gc.GameDir).
		Str("data_dir", gc.DataDir).
		Bool("emulated", gc.Emulated).
		Msg("Game context detected")

	return gc, nil
}

// FromProcessPath derives a Context from the game executable path.
func FromProcessPath(processPath, playerModule string, emulated bool) Context {
	gameDir := filepath.Dir(processPath)
	stem := strings.TrimSuffix(filepath.Base(processPath), filepath.Ext(processPath))

	return Context{
		ProcessPath:  processPath,
		GameDir:      gameDir,
		DataDir:      filepath.Join(gameDir, stem+"_Data"),
		PlayerModule: playerModule,
		Emulated:     emulated,
	}
}

// HasDataDir reports whether the player data directory exists. A process
// outside a game directory that loads the bootstrap has none.
func (c Context) HasDataDir() bool {
	fi, err := os.Stat(c.DataDir)
	return err == nil && fi.IsDir()
}

func currentExe(ctx context.Context) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return "", err
	}
	return p.ExeWithContext(ctx)
}
