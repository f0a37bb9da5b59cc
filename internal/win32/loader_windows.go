//go:build windows

package win32

import (
	"golang.org/x/sys/windows"

	"github.com/venusroot/bootstrap/internal/native"
)

// maxModulePath is the buffer size, in UTF-16 units, for module file names.
const maxModulePath = 2048

// SystemLoader implements Loader with kernel32.
type SystemLoader struct{}

// GetProcAddress implements Loader. A missing symbol yields 0, like the Win32 call.
func (SystemLoader) GetProcAddress(module Module, symbol string) native.Address {
	addr, err := windows.GetProcAddress(windows.Handle(module), symbol)
	if err != nil {
		return 0
	}
	return native.Address(addr)
}

// GetModuleFileName implements Loader.
func (SystemLoader) GetModuleFileName(module Module) (string, error) {
	buf := make([]uint16, maxModulePath)
	n, err := windows.GetModuleFileName(windows.Handle(module), &buf[0], uint32(len(buf)))
	if err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// IsWine reports whether the process runs under Wine, which exports
// wine_get_version from ntdll.
func IsWine() bool {
	return windows.NewLazySystemDLL("ntdll.dll").NewProc("wine_get_version").Find() == nil
}
