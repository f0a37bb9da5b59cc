// Package native models the boundary between Go replacement functions and the
// host's native call sites: raw code addresses, native-callable thunks and the
// arena that keeps them alive while a hook points at them.
package native

import (
	"errors"
	"fmt"
	"sync"
)

// Address is a code or data address inside the host process.
type Address uintptr

// String renders the address the way native tooling prints pointers.
func (a Address) String() string {
	return fmt.Sprintf("0x%X", uintptr(a))
}

// ErrStaleHandle is returned when a thunk handle outlived its slot.
var ErrStaleHandle = errors.New("native: stale thunk handle")

// CallbackFactory turns a Go function value into a native-callable entry point.
type CallbackFactory interface {
	NewCallback(fn any) (Address, error)
}

// Handle identifies a slot in a Thunks arena. The generation guards against a
// released slot being reused under an old handle.
type Handle struct {
	index      uint32
	generation uint32
}

// Thunk is a native entry point owned by the component that created it. The
// owner must keep it alive (not Release it) until every hook that points at
// Address has been uninstalled.
type Thunk struct {
	Handle  Handle
	Address Address
}

type slot struct {
	owner      any
	// fn keeps the callback target reachable while the slot is live.
	fn         any
	addr       Address
	generation uint32
	used       bool
}

// Thunks is a process-wide arena mapping opaque handles to the components
// behind native entry points. Native call trampolines carry no object context:
// an entry made with MakeFor finds its component through the arena on every
// call, so a released thunk can no longer reach it.
type Thunks struct {
	mu      sync.Mutex
	factory CallbackFactory
	slots   []slot
	free    []uint32
}

// Self resolves, at call time, the owner a thunk was made for. It reports
// false once the thunk has been released.
type Self func() (owner any, ok bool)

// As resolves self and asserts the owner to T.
func As[T any](self Self) (T, bool) {
	var zero T
	owner, ok := self()
	if !ok {
		return zero, false
	}
	v, ok := owner.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// NewThunks creates an empty arena backed by factory.
func NewThunks(factory CallbackFactory) *Thunks {
	return &Thunks{factory: factory}
}

// Make registers fn, which needs no owner, and returns its native entry point.
func (t *Thunks) Make(fn any) (Thunk, error) {
	if fn == nil {
		return Thunk{}, fmt.Errorf("native: nil callback")
	}
	return t.MakeFor(nil, func(Self) any { return fn })
}

// MakeFor registers owner and the entry function build returns. The entry
// reaches owner only through the Self it was built with.
func (t *Thunks) MakeFor(owner any, build func(self Self) any) (Thunk, error) {
	t.mu.Lock()
	h := t.reserveLocked(owner)
	t.mu.Unlock()

	fn := build(func() (any, bool) {
		o, err := t.Owner(h)
		return o, err == nil
	})
	if fn == nil {
		t.Release(h)
		return Thunk{}, fmt.Errorf("native: nil callback")
	}

	addr, err := t.factory.NewCallback(fn)
	if err != nil {
		t.Release(h)
		return Thunk{}, fmt.Errorf("native: create callback: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.slots[h.index]
	s.fn = fn
	s.addr = addr

	return Thunk{Handle: h, Address: addr}, nil
}

func (t *Thunks) reserveLocked(owner any) Handle {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot{})
		idx = uint32(len(t.slots) - 1)
	}

	s := &t.slots[idx]
	s.owner = owner
	s.used = true
	s.generation++
	return Handle{index: idx, generation: s.generation}
}

// Owner returns the owner registered under h.
func (t *Thunks) Owner(h Handle) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.slotLocked(h)
	if err != nil {
		return nil, err
	}
	return s.owner, nil
}

// Release drops the arena's reference to the function behind h. Releasing an
// unknown or already released handle is a no-op.
func (t *Thunks) Release(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.slotLocked(h)
	if err != nil {
		return
	}
	s.owner = nil
	s.fn = nil
	s.addr = 0
	s.used = false
	t.free = append(t.free, h.index)
}

// Live returns the number of registered thunks.
func (t *Thunks) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots) - len(t.free)
}

func (t *Thunks) slotLocked(h Handle) (*slot, error) {
	if int(h.index) >= len(t.slots) {
		return nil, ErrStaleHandle
	}
	s := &t.slots[h.index]
	if !s.used || s.generation != h.generation {
		return nil, ErrStaleHandle
	}
	return s, nil
}
