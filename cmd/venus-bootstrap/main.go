//go:build windows

// Package main builds the bootstrap as a DLL. The native loader injected into
// the game calls EntryPoint once, before the player starts the runtime.
package main

import "C"

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/venusroot/bootstrap/internal/bootstrap"
	"github.com/venusroot/bootstrap/internal/gamectx"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/logging"
	"github.com/venusroot/bootstrap/internal/mono"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

var (
	startOnce sync.Once
	// running keeps the bootstrap and its thunks reachable for the process lifetime.
	running *bootstrap.Bootstrap
)

//export EntryPoint
func EntryPoint(module uintptr) {
	startOnce.Do(func() {
		if err := start(); err != nil {
			logger := logging.NewWithComponent(logging.DefaultConfig(), "entry")
			logger.Error().Err(err).Uint64("module", uint64(module)).Msg("Bootstrap failed to start")
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
}

func start() error {
	game, err := gamectx.NewDetector(logging.New(logging.DefaultConfig())).Detect(context.Background())
	if err != nil {
		return err
	}
	if !game.HasDataDir() {
		return nil
	}

	b, err := bootstrap.Start(game, bootstrap.Host{
		Primitive: &hook.IATPrimitive{},
		Callbacks: native.SyscallCallbacks{},
		Loader:    win32.SystemLoader{},
		Files:     win32.Kernel32Files{},
		Sockets:   win32.Winsock{},
		Bind:      mono.BindExports,
	})
	if err != nil {
		return err
	}

	running = b
	b.Logger.Info().Msg("Resuming player startup")
	return nil
}

func main() {}
