// Package playerlogs mirrors the Unity player's log output into the
// bootstrap logger.
package playerlogs

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/errors"
	"github.com/venusroot/bootstrap/internal/filehook"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/lifecycle"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/safe"
	"github.com/venusroot/bootstrap/internal/win32"
)

// Hooked export and the sub-hook name.
const (
	WriteFileFunction = "WriteFile"
	SubHookName       = "player-logs"
)

// Log file names the player writes to, depending on its version.
var logFileSuffixes = []string{"Player.log", "output_log.txt"}

// SubHooks registers CreateFileW sub-hooks.
type SubHooks interface {
	Register(name string, predicate filehook.Predicate, handler filehook.Handler)
	Unregister(name string)
}

// Mirror watches the player's writes to its log file and to the standard
// handles. Log file writes still reach the file; standard handle writes are
// swallowed.
type Mirror struct {
	module   string
	include  bool
	subHooks SubHooks
	hooks    hook.Installer
	thunks   *native.Thunks
	real     win32.Files
	logger   zerolog.Logger
	unity    zerolog.Logger

	mu         sync.Mutex
	stdout     win32.Handle
	stderr     win32.Handle
	tracked    bool
	handle     win32.Handle
	registered bool
}

// New creates a mirror for the player module. When include is false the
// player's output is not logged.
func New(module string, include bool, subHooks SubHooks, hooks hook.Installer, thunks *native.Thunks, real win32.Files, logger zerolog.Logger) *Mirror {
	return &Mirror{
		module:   module,
		include:  include,
		subHooks: subHooks,
		hooks:    hooks,
		thunks:   thunks,
		real:     real,
		logger:   logger.With().Str("component", "player-logs").Logger(),
		unity:    logger.With().Str("component", "unity").Logger(),
	}
}

// Install registers the log file sub-hook and hooks WriteFile on the player
// module.
func (m *Mirror) Install() error {
	write, err := m.thunks.MakeFor(m, writeEntry)
	if err != nil {
		return err
	}

	stdout, stderr := m.real.StdHandles()
	m.mu.Lock()
	m.stdout = stdout
	m.stderr = stderr
	m.registered = true
	m.mu.Unlock()

	m.subHooks.Register(SubHookName, m.IsPlayerLog, m.Open)
	m.hooks.Install(m.module, WriteFileFunction, write.Address)

	m.logger.Debug().Bool("mirrored", m.include).Msg("Watching player log output")
	return nil
}

// IsPlayerLog reports whether fileName is the player's log file.
func (m *Mirror) IsPlayerLog(fileName string) bool {
	for _, suffix := range logFileSuffixes {
		if strings.HasSuffix(fileName, suffix) {
			return true
		}
	}
	return false
}

// Open is the log file sub-hook: it opens the file for real and remembers
// the handle. Only the first open is tracked.
func (m *Mirror) Open(args win32.CreateFileArgs) win32.Handle {
	h := m.real.CreateFile(args)

	m.unregister()
	if h == win32.InvalidHandle {
		m.logger.Warn().Str("file", args.FileName).Msg("Opening the player log failed")
		return h
	}

	m.mu.Lock()
	m.tracked = true
	m.handle = h
	m.mu.Unlock()

	m.logger.Debug().Str("file", args.FileName).Str("handle", native.Address(h).String()).Msg("Opened player log")
	return h
}

// WriteFile is the WriteFile replacement.
func (m *Mirror) WriteFile(h win32.Handle, buf []byte, overlapped uintptr) (uint32, bool) {
	type result struct {
		n  uint32
		ok bool
	}

	r := errors.Guard(m.logger, WriteFileFunction, func() result {
		source, std := m.classify(h)
		if source == "" {
			n, ok := m.real.WriteFile(h, buf, overlapped)
			return result{n, ok}
		}

		if m.include {
			m.unity.Trace().Str("source", source).Msg(strings.TrimRight(string(buf), "\r\n"))
		}
		if std {
			n, _ := safe.IntToUint32(len(buf))
			return result{n, true}
		}
		n, ok := m.real.WriteFile(h, buf, overlapped)
		return result{n, ok}
	}, func() result {
		n, ok := m.real.WriteFile(h, buf, overlapped)
		return result{n, ok}
	})

	return r.n, r.ok
}

// classify names the output h belongs to, or "" for unrelated handles.
func (m *Mirror) classify(h win32.Handle) (source string, std bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case h == win32.InvalidHandle:
		return "", false
	case m.tracked && h == m.handle:
		return "player.log", false
	case h == m.stdout:
		return "stdout", true
	case h == m.stderr:
		return "stderr", true
	}
	return "", false
}

// HandleLifecycle stops watching for the log file once the runtime
// initializes. WriteFile stays hooked so output keeps being mirrored.
func (m *Mirror) HandleLifecycle(ev lifecycle.Event) {
	if ev.Kind != lifecycle.RuntimeInitializing {
		return
	}
	m.unregister()
}

func (m *Mirror) unregister() {
	m.mu.Lock()
	registered := m.registered
	m.registered = false
	m.mu.Unlock()

	if registered {
		m.subHooks.Unregister(SubHookName)
	}
}
