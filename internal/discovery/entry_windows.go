//go:build windows

package discovery

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// sendToEntry adapts SendTo to the Winsock calling convention.
func sendToEntry(self native.Self) any {
	return func(s, buf, n, flags, to, toLen uintptr) uintptr {
		a, ok := native.As[*Announcer](self)
		if !ok {
			return ^uintptr(0)
		}
		return uintptr(a.SendTo(
			win32.Socket(s),
			native.Bytes(native.Address(buf), int(int32(n))),
			int32(flags),
			to,
			int32(toLen),
		))
	}
}
