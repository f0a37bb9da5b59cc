// Package hook manages exported-function redirection sessions: one interception
// session per module file name, and per session the original entry point of
// every function redirected through it so the redirection can be undone.
package hook

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/native"
)

// Session is the opaque handle an interception primitive returns for a module.
type Session uintptr

// Primitive is the low-level interception capability the registry drives.
// Errors carry the primitive's last error message.
type Primitive interface {
	Open(moduleFileName string) (Session, error)
	Replace(s Session, functionName string, newAddr native.Address) (previous native.Address, err error)
	Close(s Session) error
}

// LogAware is implemented by primitives that log failures they absorb. The
// registry hands them its logger.
type LogAware interface {
	SetLogger(logger zerolog.Logger)
}

// Installer is the part of Registry that hooking components depend on.
type Installer interface {
	Install(moduleName, functionName string, newAddr native.Address)
	Uninstall(moduleName, functionName string)
}

// Layering decides what the registry records as "original" when a function
// that is already hooked is hooked again.
type Layering int

const (
	// LayeringImmediatePrior records whatever the primitive reports as the
	// previous target, even if that is an earlier replacement. Uninstall then
	// restores the innermost layer.
	LayeringImmediatePrior Layering = iota
	// LayeringPreserveOriginal keeps the first recorded original so Uninstall
	// always restores the true pre-hook function.
	LayeringPreserveOriginal
)

// ParseLayering maps a config value to a Layering.
func ParseLayering(s string) (Layering, error) {
	switch s {
	case "", "immediate-prior":
		return LayeringImmediatePrior, nil
	case "preserve-original":
		return LayeringPreserveOriginal, nil
	default:
		return 0, fmt.Errorf("unknown hook layering %q", s)
	}
}

// String implements fmt.Stringer.
func (l Layering) String() string {
	if l == LayeringPreserveOriginal {
		return "preserve-original"
	}
	return "immediate-prior"
}

type moduleSession struct {
	session   Session
	originals map[string]native.Address
}

// Registry binds (module, function) pairs to replacement entry points.
type Registry struct {
	mu        sync.Mutex
	primitive Primitive
	layering  Layering
	logger    zerolog.Logger
	sessions  map[string]*moduleSession
}

// NewRegistry creates a registry driving primitive.
func NewRegistry(primitive Primitive, layering Layering, logger zerolog.Logger) *Registry {
	r := &Registry{
		primitive: primitive,
		layering:  layering,
		logger:    logger.With().Str("component", "hook-registry").Logger(),
		sessions:  make(map[string]*moduleSession),
	}
	if la, ok := primitive.(LogAware); ok {
		la.SetLogger(r.logger)
	}
	return r
}

// Install redirects functionName in moduleName to newAddr. Failures are logged
// and leave the registry unchanged.
func (r *Registry) Install(moduleName, functionName string, newAddr native.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.sessions[moduleName]
	opened := false
	if !ok {
		session, err := r.primitive.Open(moduleName)
		if err != nil {
			r.logger.Error().Err(err).Str("module", moduleName).Msg("Failed to open interception session")
			return
		}
		ms = &moduleSession{session: session, originals: make(map[string]native.Address)}
		r.sessions[moduleName] = ms
		opened = true
		r.logger.Info().Str("module", moduleName).Msg("Opened interception session")
	}

	previous, err := r.primitive.Replace(ms.session, functionName, newAddr)
	if err != nil {
		r.logger.Error().Err(err).
			Str("module", moduleName).
			Str("function", functionName).
			Msg("Failed to hook function")
		if opened {
			r.closeLocked(moduleName, ms)
		}
		return
	}

	if existing, hooked := ms.originals[functionName]; hooked && r.layering == LayeringPreserveOriginal {
		previous = existing
	}
	ms.originals[functionName] = previous

	r.logger.Info().
		Str("module", filepath.Base(moduleName)).
		Str("function", functionName).
		Stringer("original", previous).
		Msg("Hooked function")
	r.traceActiveLocked()
}

// Uninstall restores the recorded original of functionName in moduleName. It
// is a no-op when no such hook is recorded.
func (r *Registry) Uninstall(moduleName, functionName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.sessions[moduleName]
	if !ok {
		return
	}
	original, ok := ms.originals[functionName]
	if !ok {
		return
	}

	if _, err := r.primitive.Replace(ms.session, functionName, original); err != nil {
		r.logger.Error().Err(err).
			Str("module", moduleName).
			Str("function", functionName).
			Msg("Failed to unhook function")
		return
	}
	delete(ms.originals, functionName)
	r.logger.Info().
		Str("module", filepath.Base(moduleName)).
		Str("function", functionName).
		Msg("Uninstalled hook")

	if len(ms.originals) == 0 {
		r.closeLocked(moduleName, ms)
	}
	r.traceActiveLocked()
}

// Original returns the entry point recorded for a hooked function.
func (r *Registry) Original(moduleName, functionName string) (native.Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.sessions[moduleName]
	if !ok {
		return 0, false
	}
	addr, ok := ms.originals[functionName]
	return addr, ok
}

// Active returns the hooked function names per module, sorted.
func (r *Registry) Active() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

func (r *Registry) closeLocked(moduleName string, ms *moduleSession) {
	if err := r.primitive.Close(ms.session); err != nil {
		r.logger.Warn().Err(err).Str("module", moduleName).Msg("Failed to close interception session")
	}
	delete(r.sessions, moduleName)
	r.logger.Info().Str("module", moduleName).Msg("Closed interception session")
}

func (r *Registry) activeLocked() map[string][]string {
	out := make(map[string][]string, len(r.sessions))
	for module, ms := range r.sessions {
		names := make([]string, 0, len(ms.originals))
		for fn := range ms.originals {
			names = append(names, fn)
		}
		sort.Strings(names)
		out[module] = names
	}
	return out
}

func (r *Registry) traceActiveLocked() {
	if r.logger.GetLevel() > zerolog.TraceLevel {
		return
	}
	for module, fns := range r.activeLocked() {
		r.logger.Trace().
			Str("module", filepath.Base(module)).
			Strs("functions", fns).
			Msg("Active hooks")
	}
}
