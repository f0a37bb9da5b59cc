// Package win32 declares the host functions the bootstrap calls through when a
// replacement decides not to (or cannot) handle a call itself. Each interface is
// the "real function" side of a hook.
package win32

import "github.com/venusroot/bootstrap/internal/native"

// Module is a loaded module handle (HMODULE).
type Module uintptr

// Socket is a Winsock socket handle.
type Socket uintptr

// Handle is a kernel object handle.
type Handle uintptr

// InvalidHandle is INVALID_HANDLE_VALUE.
const InvalidHandle = ^Handle(0)

// Loader resolves symbols and module paths.
type Loader interface {
	GetProcAddress(module Module, symbol string) native.Address
	GetModuleFileName(module Module) (string, error)
}

// Sockets is the subset of Winsock the runtime's debugger agent and the player
// discovery use.
type Sockets interface {
	Recv(s Socket, buf []byte, flags int32) int32
	Send(s Socket, buf []byte, flags int32) int32
	SendTo(s Socket, buf []byte, flags int32, to uintptr, toLen int32) int32
}

// CreateFileArgs carries the arguments of a CreateFileW call. Name is the raw
// LPCWSTR from the caller, FileName its decoded form.
type CreateFileArgs struct {
	Name                native.Address
	FileName            string
	DesiredAccess       uint32
	ShareMode           uint32
	SecurityAttributes  uintptr
	CreationDisposition uint32
	FlagsAndAttributes  uint32
	TemplateFile        Handle
}

// Files is the file API surface UnityPlayer reads boot.config and writes its
// logs through.
type Files interface {
	CreateFile(args CreateFileArgs) Handle
	ReadFile(h Handle, buf []byte, overlapped uintptr) (read uint32, ok bool)
	WriteFile(h Handle, buf []byte, overlapped uintptr) (written uint32, ok bool)
	SetFilePointerEx(h Handle, distance int64, method uint32) (newPos int64, ok bool)
	// StdHandles returns the process's standard output and error handles.
	StdHandles() (stdout, stderr Handle)
}

// File move methods accepted by SetFilePointerEx.
const (
	FileBegin   uint32 = 0
	FileCurrent uint32 = 1
	FileEnd     uint32 = 2
)
