//go:build windows

package native

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// SyscallCallbacks creates real native entry points with windows.NewCallback.
// Callbacks are never freed by the Go runtime, so addresses stay valid for the
// life of the process.
type SyscallCallbacks struct{}

// NewCallback implements CallbackFactory.
func (SyscallCallbacks) NewCallback(fn any) (addr Address, err error) {
	// windows.NewCallback panics on unsupported signatures.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native callback: %v", r)
		}
	}()
	return Address(windows.NewCallback(fn)), nil
}
