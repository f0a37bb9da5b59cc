//go:build windows

package filehook

import (
	"golang.org/x/sys/windows"

	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// createFileEntry adapts Open to the CreateFileW calling convention.
func createFileEntry(self native.Self) any {
	return func(name, access, share, sa, disposition, flags, template uintptr) uintptr {
		m, ok := native.As[*Multiplexer](self)
		if !ok {
			return uintptr(win32.InvalidHandle)
		}
		return uintptr(m.Open(win32.CreateFileArgs{
			Name:                native.Address(name),
			FileName:            windows.UTF16ToString(native.WString(native.Address(name))),
			DesiredAccess:       uint32(access),
			ShareMode:           uint32(share),
			SecurityAttributes:  sa,
			CreationDisposition: uint32(disposition),
			FlagsAndAttributes:  uint32(flags),
			TemplateFile:        win32.Handle(template),
		}))
	}
}
