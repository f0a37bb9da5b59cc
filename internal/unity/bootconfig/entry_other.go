//go:build !windows

package bootconfig

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func readEntry(self native.Self) any {
	return func(h win32.Handle, buf []byte, overlapped uintptr) (uint32, bool) {
		c, ok := native.As[*Customizer](self)
		if !ok {
			return 0, false
		}
		return c.ReadFile(h, buf, overlapped)
	}
}

func seekEntry(self native.Self) any {
	return func(h win32.Handle, distance int64, method uint32) (int64, bool) {
		c, ok := native.As[*Customizer](self)
		if !ok {
			return 0, false
		}
		return c.SetFilePointerEx(h, distance, method)
	}
}
