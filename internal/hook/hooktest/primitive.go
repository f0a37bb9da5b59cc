// Package hooktest provides an in-memory interception primitive for tests.
package hooktest

import (
	"fmt"
	"sync"

	"github.com/venusroot/bootstrap/internal/hook"
	"github.com/venusroot/bootstrap/internal/native"
)

type module struct {
	name    string
	targets map[string]native.Address
}

// Primitive simulates import tables: every module starts with each function
// pointing at a stable "pristine" address, and Replace swaps targets like the
// real primitive would.
type Primitive struct {
	mu        sync.Mutex
	next      hook.Session
	open      map[hook.Session]*module
	tables    map[string]map[string]native.Address
	FailOpen  map[string]bool
	FailSwap  map[string]bool
	OpenCount map[string]int
	Closed    []string
}

// NewPrimitive creates an empty Primitive.
func NewPrimitive() *Primitive {
	return &Primitive{
		open:      make(map[hook.Session]*module),
		tables:    make(map[string]map[string]native.Address),
		FailOpen:  make(map[string]bool),
		FailSwap:  make(map[string]bool),
		OpenCount: make(map[string]int),
	}
}

// Pristine returns the address a function resolves to before any hook.
func Pristine(moduleName, functionName string) native.Address {
	var h uint32 = 2166136261
	for _, c := range []byte(moduleName + "!" + functionName) {
		h ^= uint32(c)
		h *= 16777619
	}
	return native.Address(0x10000000 | uintptr(h&0x0FFFFFF0))
}

// Open implements hook.Primitive.
func (p *Primitive) Open(moduleName string) (hook.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailOpen[moduleName] {
		return 0, fmt.Errorf("plthook_open: cannot open %s", moduleName)
	}
	p.next++
	p.open[p.next] = &module{name: moduleName, targets: p.tableLocked(moduleName)}
	p.OpenCount[moduleName]++
	return p.next, nil
}

// Replace implements hook.Primitive.
func (p *Primitive) Replace(s hook.Session, functionName string, newAddr native.Address) (native.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.open[s]
	if !ok {
		return 0, fmt.Errorf("plthook_replace: invalid session")
	}
	if p.FailSwap[functionName] {
		return 0, fmt.Errorf("plthook_replace: no such function: %s", functionName)
	}
	prev, ok := m.targets[functionName]
	if !ok {
		prev = Pristine(m.name, functionName)
	}
	m.targets[functionName] = newAddr
	return prev, nil
}

// Close implements hook.Primitive.
func (p *Primitive) Close(s hook.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.open[s]
	if !ok {
		return fmt.Errorf("plthook_close: invalid session")
	}
	delete(p.open, s)
	p.Closed = append(p.Closed, m.name)
	return nil
}

// Target returns where functionName in moduleName currently points.
func (p *Primitive) Target(moduleName, functionName string) native.Address {
	p.mu.Lock()
	defer p.mu.Unlock()

	if addr, ok := p.tableLocked(moduleName)[functionName]; ok {
		return addr
	}
	return Pristine(moduleName, functionName)
}

// OpenSessions returns the number of sessions not yet closed.
func (p *Primitive) OpenSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}

func (p *Primitive) tableLocked(moduleName string) map[string]native.Address {
	t, ok := p.tables[moduleName]
	if !ok {
		t = make(map[string]native.Address)
		p.tables[moduleName] = t
	}
	return t
}
