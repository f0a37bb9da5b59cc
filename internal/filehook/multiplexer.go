// Package filehook shares one CreateFileW interception of the player module
// between several independent consumers. Each consumer registers a filename
// predicate; the first matching registration serves the call and everything
// else goes to the real function.
package filehook

import (
	"sync"

	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/venusroot/bootstrap/internal/errors"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/lifecycle"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// FunctionName is the intercepted export.
const FunctionName = "CreateFileW"

// Predicate reports whether a registration wants the file being opened.
type Predicate func(fileName string) bool

// Handler serves a matched CreateFileW call in place of the real function.
type Handler func(args win32.CreateFileArgs) win32.Handle

type registration struct {
	predicate Predicate
	handler   Handler
}

// Multiplexer dispatches intercepted CreateFileW calls to sub-hooks.
type Multiplexer struct {
	module string
	hooks  hook.Installer
	thunks *native.Thunks
	real   win32.Files
	logger zerolog.Logger

	mu        sync.Mutex
	subs      *orderedmap.OrderedMap[string, registration]
	thunk     native.Thunk
	installed bool
}

// New creates a multiplexer for CreateFileW as imported by module.
func New(module string, hooks hook.Installer, thunks *native.Thunks, real win32.Files, logger zerolog.Logger) *Multiplexer {
	return &Multiplexer{
		module: module,
		hooks:  hooks,
		thunks: thunks,
		real:   real,
		logger: logger.With().Str("component", "file-hook").Logger(),
		subs:   orderedmap.New[string, registration](),
	}
}

// Install creates the native entry point and hooks CreateFileW.
func (m *Multiplexer) Install() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.installed {
		return nil
	}

	thunk, err := m.thunks.MakeFor(m, createFileEntry)
	if err != nil {
		return err
	}
	m.thunk = thunk
	m.installed = true
	m.hooks.Install(m.module, FunctionName, thunk.Address)
	return nil
}

// Register adds a sub-hook, or replaces the one already registered under name
// without changing its dispatch position.
func (m *Multiplexer) Register(name string, predicate Predicate, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, replaced := m.subs.Set(name, registration{predicate: predicate, handler: handler}); replaced {
		m.logger.Debug().Str("name", name).Msg("Replaced file sub-hook")
		return
	}
	m.logger.Debug().Str("name", name).Msg("Registered file sub-hook")
}

// Unregister removes the sub-hook registered under name. The underlying hook
// stays installed until the runtime initializes.
func (m *Multiplexer) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs.Delete(name); ok {
		m.logger.Debug().Str("name", name).Msg("Unregistered file sub-hook")
	}
}

// Registered returns the registration names in dispatch order.
func (m *Multiplexer) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, m.subs.Len())
	for pair := m.subs.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Open is the CreateFileW replacement. The first registration whose predicate
// accepts the filename handles the call; otherwise the real function does.
func (m *Multiplexer) Open(args win32.CreateFileArgs) win32.Handle {
	return errors.Guard(m.logger, FunctionName, func() win32.Handle {
		if handler := m.match(args.FileName); handler != nil {
			return handler(args)
		}
		return m.real.CreateFile(args)
	}, func() win32.Handle {
		return m.real.CreateFile(args)
	})
}

// HandleLifecycle collapses the multiplexer once the runtime initializes:
// every registration is dropped and CreateFileW is unhooked.
func (m *Multiplexer) HandleLifecycle(ev lifecycle.Event) {
	if ev.Kind != lifecycle.RuntimeInitializing {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs = orderedmap.New[string, registration]()
	if !m.installed {
		return
	}
	m.hooks.Uninstall(m.module, FunctionName)
	m.thunks.Release(m.thunk.Handle)
	m.installed = false
	m.logger.Debug().Msg("Released CreateFileW hook")
}

func (m *Multiplexer) match(fileName string) Handler {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pair := m.subs.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.predicate(fileName) {
			m.logger.Trace().Str("name", pair.Key).Str("file", fileName).Msg("File sub-hook matched")
			return pair.Value.handler
		}
	}
	return nil
}
