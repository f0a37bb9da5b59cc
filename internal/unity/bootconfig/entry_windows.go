//go:build windows

package bootconfig

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func readEntry(self native.Self) any {
	return func(h, buf, toRead, read, overlapped uintptr) uintptr {
		c, ok := native.As[*Customizer](self)
		if !ok {
			return 0
		}
		n, ok := c.ReadFile(win32.Handle(h), native.Bytes(native.Address(buf), int(uint32(toRead))), overlapped)
		native.PutUint32(native.Address(read), n)
		return boolResult(ok)
	}
}

func seekEntry(self native.Self) any {
	return func(h, distance, newPos, method uintptr) uintptr {
		c, ok := native.As[*Customizer](self)
		if !ok {
			return 0
		}
		pos, ok := c.SetFilePointerEx(win32.Handle(h), int64(distance), uint32(method))
		if ok {
			native.PutInt64(native.Address(newPos), pos)
		}
		return boolResult(ok)
	}
}

func boolResult(ok bool) uintptr {
	if ok {
		return 1
	}
	return 0
}
