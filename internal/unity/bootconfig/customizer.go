package bootconfig

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/config"
	"github.com/venusroot/bootstrap/internal/errors"
	"github.com/venusroot/bootstrap/internal/filehook"
	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/lifecycle"
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/safe"
	"github.com/venusroot/bootstrap/internal/win32"
)

// Hooked exports and the sub-hook name.
const (
	ReadFileFunction         = "ReadFile"
	SetFilePointerExFunction = "SetFilePointerEx"
	SubHookName              = "boot-config"
)

// SubHooks registers CreateFileW sub-hooks.
type SubHooks interface {
	Register(name string, predicate filehook.Predicate, handler filehook.Handler)
	Unregister(name string)
}

// Customizer replaces the content the player reads from boot.config. The
// file is still opened for real; only reads and seeks on its handle are
// answered from the rendered overrides.
type Customizer struct {
	path     string
	module   string
	subHooks SubHooks
	hooks    hook.Installer
	thunks   *native.Thunks
	real     win32.Files
	logger   zerolog.Logger

	content []byte

	mu        sync.Mutex
	tracked   bool
	handle    win32.Handle
	pos       int64
	installed bool
}

// New creates a customizer for <dataDir>/boot.config as read by module.
func New(dataDir, module string, overrides config.BootConfigOverrides, subHooks SubHooks, hooks hook.Installer, thunks *native.Thunks, real win32.Files, logger zerolog.Logger) *Customizer {
	return &Customizer{
		path:     filepath.Join(dataDir, "boot.config"),
		module:   module,
		subHooks: subHooks,
		hooks:    hooks,
		thunks:   thunks,
		real:     real,
		logger:   logger.With().Str("component", "boot-config").Logger(),
		content:  []byte(Render(overrides)),
	}
}

// Content returns the rendered boot.config.
func (c *Customizer) Content() []byte {
	return c.content
}

// Install registers the boot.config sub-hook and hooks ReadFile and
// SetFilePointerEx on the player module.
func (c *Customizer) Install() error {
	read, err := c.thunks.MakeFor(c, readEntry)
	if err != nil {
		return err
	}
	seek, err := c.thunks.MakeFor(c, seekEntry)
	if err != nil {
		c.thunks.Release(read.Handle)
		return err
	}

	c.subHooks.Register(SubHookName, c.IsBootConfig, c.Open)
	c.hooks.Install(c.module, ReadFileFunction, read.Address)
	c.hooks.Install(c.module, SetFilePointerExFunction, seek.Address)

	c.mu.Lock()
	c.installed = true
	c.mu.Unlock()

	c.logger.Debug().Str("content", string(c.content)).Msg("boot.config will be replaced")
	return nil
}

// IsBootConfig reports whether fileName names the game's boot.config.
func (c *Customizer) IsBootConfig(fileName string) bool {
	return strings.EqualFold(normalize(fileName), normalize(c.path))
}

func normalize(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Open is the boot.config sub-hook: it opens the file for real and remembers
// the handle. Only the first open is tracked.
func (c *Customizer) Open(args win32.CreateFileArgs) win32.Handle {
	h := c.real.CreateFile(args)

	c.subHooks.Unregister(SubHookName)
	if h == win32.InvalidHandle {
		c.logger.Warn().Msg("Opening boot.config failed, reads go to the host")
		return h
	}

	c.mu.Lock()
	c.tracked = true
	c.handle = h
	c.pos = 0
	c.mu.Unlock()

	c.logger.Info().Str("handle", native.Address(h).String()).Msg("Opened boot.config")
	return h
}

// ReadFile is the ReadFile replacement. The first read on the boot.config
// handle is served from the rendered content; the handle is forgotten after.
func (c *Customizer) ReadFile(h win32.Handle, buf []byte, overlapped uintptr) (uint32, bool) {
	type result struct {
		n  uint32
		ok bool
	}

	r := errors.Guard(c.logger, ReadFileFunction, func() result {
		c.mu.Lock()
		if !c.ownsLocked(h) {
			c.mu.Unlock()
			n, ok := c.real.ReadFile(h, buf, overlapped)
			return result{n, ok}
		}
		defer c.mu.Unlock()

		var n int
		if c.pos < int64(len(c.content)) {
			n = copy(buf, c.content[c.pos:])
		}
		c.pos += int64(n)
		c.tracked = false

		c.logger.Info().Int("bytes", n).Msg("Served boot.config read")
		read, _ := safe.IntToUint32(n)
		return result{read, true}
	}, func() result {
		n, ok := c.real.ReadFile(h, buf, overlapped)
		return result{n, ok}
	})

	return r.n, r.ok
}

// SetFilePointerEx is the SetFilePointerEx replacement. Seeks on the
// boot.config handle move within the rendered content.
func (c *Customizer) SetFilePointerEx(h win32.Handle, distance int64, method uint32) (int64, bool) {
	type result struct {
		pos int64
		ok  bool
	}

	r := errors.Guard(c.logger, SetFilePointerExFunction, func() result {
		c.mu.Lock()
		if !c.ownsLocked(h) {
			c.mu.Unlock()
			pos, ok := c.real.SetFilePointerEx(h, distance, method)
			return result{pos, ok}
		}
		defer c.mu.Unlock()

		pos, ok := c.seek(distance, method)
		c.logger.Debug().Int64("position", pos).Bool("ok", ok).Msg("Moved boot.config file pointer")
		return result{pos, ok}
	}, func() result {
		pos, ok := c.real.SetFilePointerEx(h, distance, method)
		return result{pos, ok}
	})

	return r.pos, r.ok
}

// ownsLocked reports whether h is the tracked boot.config handle. Callers
// hold mu.
func (c *Customizer) ownsLocked(h win32.Handle) bool {
	return c.tracked && h == c.handle
}

// seek moves the emulated file pointer. Callers hold mu.
func (c *Customizer) seek(distance int64, method uint32) (int64, bool) {
	var base int64
	switch method {
	case win32.FileBegin:
	case win32.FileCurrent:
		base = c.pos
	case win32.FileEnd:
		base = int64(len(c.content))
	default:
		return c.pos, false
	}
	if base+distance < 0 {
		return c.pos, false
	}
	c.pos = base + distance
	return c.pos, true
}

// HandleLifecycle releases the read hooks once the runtime initializes.
func (c *Customizer) HandleLifecycle(ev lifecycle.Event) {
	if ev.Kind != lifecycle.RuntimeInitializing {
		return
	}

	c.mu.Lock()
	installed := c.installed
	c.installed = false
	c.tracked = false
	c.mu.Unlock()

	if !installed {
		return
	}
	c.hooks.Uninstall(c.module, ReadFileFunction)
	c.hooks.Uninstall(c.module, SetFilePointerExFunction)
}
