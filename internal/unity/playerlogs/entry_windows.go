//go:build windows

package playerlogs

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func writeEntry(self native.Self) any {
	return func(h, buf, toWrite, written, overlapped uintptr) uintptr {
		m, ok := native.As[*Mirror](self)
		if !ok {
			return 0
		}
		n, ok := m.WriteFile(win32.Handle(h), native.Bytes(native.Address(buf), int(uint32(toWrite))), overlapped)
		native.PutUint32(native.Address(written), n)
		if ok {
			return 1
		}
		return 0
	}
}
