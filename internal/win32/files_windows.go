//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Kernel32Files implements Files with kernel32.
type Kernel32Files struct{}

// CreateFile implements Files.
func (Kernel32Files) CreateFile(args CreateFileArgs) Handle {
	name := (*uint16)(unsafe.Pointer(uintptr(args.Name))) //nolint:govet // caller's LPCWSTR
	if name == nil {
		p, err := windows.UTF16PtrFromString(args.FileName)
		if err != nil {
			return InvalidHandle
		}
		name = p
	}
	h, err := windows.CreateFile(
		name,
		args.DesiredAccess,
		args.ShareMode,
		(*windows.SecurityAttributes)(unsafe.Pointer(args.SecurityAttributes)), //nolint:govet // caller's pointer
		args.CreationDisposition,
		args.FlagsAndAttributes,
		windows.Handle(args.TemplateFile),
	)
	if err != nil {
		return InvalidHandle
	}
	return Handle(h)
}

// ReadFile implements Files.
func (Kernel32Files) ReadFile(h Handle, buf []byte, overlapped uintptr) (uint32, bool) {
	var done uint32
	err := windows.ReadFile(windows.Handle(h), buf, &done, (*windows.Overlapped)(unsafe.Pointer(overlapped))) //nolint:govet // caller's pointer
	return done, err == nil
}

// WriteFile implements Files.
func (Kernel32Files) WriteFile(h Handle, buf []byte, overlapped uintptr) (uint32, bool) {
	var done uint32
	err := windows.WriteFile(windows.Handle(h), buf, &done, (*windows.Overlapped)(unsafe.Pointer(overlapped))) //nolint:govet // caller's pointer
	return done, err == nil
}

// StdHandles implements Files. A process without a console reports
// InvalidHandle for both.
func (Kernel32Files) StdHandles() (stdout, stderr Handle) {
	return stdHandle(windows.STD_OUTPUT_HANDLE), stdHandle(windows.STD_ERROR_HANDLE)
}

func stdHandle(which uint32) Handle {
	h, err := windows.GetStdHandle(which)
	if err != nil || h == 0 {
		return InvalidHandle
	}
	return Handle(h)
}

// SetFilePointerEx implements Files.
func (Kernel32Files) SetFilePointerEx(h Handle, distance int64, method uint32) (int64, bool) {
	var pos int64
	err := windows.SetFilePointerEx(windows.Handle(h), distance, &pos, method)
	return pos, err == nil
}
