// Package win32test provides in-memory host functions for tests.
package win32test

import (
	"fmt"
	"sync"

	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/safe"
	"github.com/venusroot/bootstrap/internal/win32"
)

// Files records CreateFile calls and serves reads from in-memory contents.
type Files struct {
	mu       sync.Mutex
	Contents map[string][]byte
	Opened   []win32.CreateFileArgs
	handles  map[win32.Handle]*openFile
	next     win32.Handle

	// Stdout and Stderr are the handles StdHandles reports. Writes to them
	// are recorded like file writes.
	Stdout, Stderr win32.Handle
	written        map[win32.Handle][]byte
}

type openFile struct {
	data []byte
	pos  int64
}

// NewFiles creates Files serving contents keyed by file name.
func NewFiles(contents map[string][]byte) *Files {
	if contents == nil {
		contents = make(map[string][]byte)
	}
	return &Files{
		Contents: contents,
		handles:  make(map[win32.Handle]*openFile),
		next:     0x100,
		Stdout:   0x10,
		Stderr:   0x14,
		written:  make(map[win32.Handle][]byte),
	}
}

// CreateFile implements win32.Files.
func (f *Files) CreateFile(args win32.CreateFileArgs) win32.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Opened = append(f.Opened, args)
	data, ok := f.Contents[args.FileName]
	if !ok {
		return win32.InvalidHandle
	}
	f.next += 4
	f.handles[f.next] = &openFile{data: data}
	return f.next
}

// ReadFile implements win32.Files.
func (f *Files) ReadFile(h win32.Handle, buf []byte, _ uintptr) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	of, ok := f.handles[h]
	if !ok {
		return 0, false
	}
	if of.pos >= int64(len(of.data)) {
		return 0, true
	}
	n := copy(buf, of.data[of.pos:])
	of.pos += int64(n)
	read, _ := safe.IntToUint32(n)
	return read, true
}

// SetFilePointerEx implements win32.Files.
func (f *Files) SetFilePointerEx(h win32.Handle, distance int64, method uint32) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	of, ok := f.handles[h]
	if !ok {
		return 0, false
	}
	var base int64
	switch method {
	case win32.FileBegin:
	case win32.FileCurrent:
		base = of.pos
	case win32.FileEnd:
		base = int64(len(of.data))
	default:
		return 0, false
	}
	if base+distance < 0 {
		return 0, false
	}
	of.pos = base + distance
	return of.pos, true
}

// WriteFile implements win32.Files. Writes succeed on open handles and the
// standard handles.
func (f *Files) WriteFile(h win32.Handle, buf []byte, _ uintptr) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, open := f.handles[h]; !open && h != f.Stdout && h != f.Stderr {
		return 0, false
	}
	f.written[h] = append(f.written[h], buf...)
	n, _ := safe.IntToUint32(len(buf))
	return n, true
}

// StdHandles implements win32.Files.
func (f *Files) StdHandles() (stdout, stderr win32.Handle) {
	return f.Stdout, f.Stderr
}

// Written returns everything written to h so far.
func (f *Files) Written(h win32.Handle) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written[h]...)
}

// OpenCount returns how many CreateFile calls reached the fake.
func (f *Files) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Opened)
}

// Sockets records every buffer handed to the real send functions and serves
// queued receive payloads.
type Sockets struct {
	mu     sync.Mutex
	Sent   [][]byte
	SentTo [][]byte
	Inbox  [][]byte
}

// Recv implements win32.Sockets. An empty inbox reads as a closed connection.
func (s *Sockets) Recv(_ win32.Socket, buf []byte, _ int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Inbox) == 0 {
		return 0
	}
	n, _ := safe.IntToInt32(copy(buf, s.Inbox[0]))
	s.Inbox = s.Inbox[1:]
	return n
}

// Send implements win32.Sockets.
func (s *Sockets) Send(_ win32.Socket, buf []byte, _ int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Sent = append(s.Sent, append([]byte(nil), buf...))
	n, _ := safe.IntToInt32(len(buf))
	return n
}

// SendTo implements win32.Sockets.
func (s *Sockets) SendTo(_ win32.Socket, buf []byte, _ int32, _ uintptr, _ int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SentTo = append(s.SentTo, append([]byte(nil), buf...))
	n, _ := safe.IntToInt32(len(buf))
	return n
}

// LastSent returns the most recent buffer passed to Send.
func (s *Sockets) LastSent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Sent) == 0 {
		return nil
	}
	return s.Sent[len(s.Sent)-1]
}

// Loader resolves symbols from a fixed table.
type Loader struct {
	Symbols   map[string]native.Address
	FileNames map[win32.Module]string
	Calls     []string
}

// GetProcAddress implements win32.Loader.
func (l *Loader) GetProcAddress(_ win32.Module, symbol string) native.Address {
	l.Calls = append(l.Calls, symbol)
	return l.Symbols[symbol]
}

// GetModuleFileName implements win32.Loader.
func (l *Loader) GetModuleFileName(m win32.Module) (string, error) {
	name, ok := l.FileNames[m]
	if !ok {
		return "", fmt.Errorf("GetModuleFileName: unknown module 0x%X", uintptr(m))
	}
	return name, nil
}
