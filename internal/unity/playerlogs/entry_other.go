//go:build !windows

package playerlogs

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func writeEntry(self native.Self) any {
	return func(h win32.Handle, buf []byte, overlapped uintptr) (uint32, bool) {
		m, ok := native.As[*Mirror](self)
		if !ok {
			return 0, false
		}
		return m.WriteFile(h, buf, overlapped)
	}
}
