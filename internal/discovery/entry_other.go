//go:build !windows

package discovery

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func sendToEntry(self native.Self) any {
	return func(s win32.Socket, buf []byte, flags int32, to uintptr, toLen int32) int32 {
		a, ok := native.As[*Announcer](self)
		if !ok {
			return -1
		}
		return a.SendTo(s, buf, flags, to, toLen)
	}
}
