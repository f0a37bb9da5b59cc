package native

import (
	"fmt"
	"sync"
)

// recorderBase keeps synthetic addresses clear of the null page.
const recorderBase Address = 0x7F0000

// Recorder is a CallbackFactory that hands out synthetic addresses and keeps
// the Go function behind each one, so callers without a native host can route
// a "call through an address" back into Go.
type Recorder struct {
	mu    sync.Mutex
	next  Address
	funcs map[Address]any
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		next:  recorderBase,
		funcs: make(map[Address]any),
	}
}

// NewCallback implements CallbackFactory.
func (r *Recorder) NewCallback(fn any) (Address, error) {
	if fn == nil {
		return 0, fmt.Errorf("recorder: nil callback")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next += 0x10
	r.funcs[r.next] = fn
	return r.next, nil
}

// Func returns the function behind addr, or nil.
func (r *Recorder) Func(addr Address) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.funcs[addr]
}
