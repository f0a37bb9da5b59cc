//go:build windows

package sdb

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

const socketError = ^uintptr(0)

// sendEntry adapts Send to the Winsock calling convention.
func sendEntry(self native.Self) any {
	return func(s, buf, n, flags uintptr) uintptr {
		t, ok := native.As[*Translator](self)
		if !ok {
			return socketError
		}
		return uintptr(t.Send(win32.Socket(s), native.Bytes(native.Address(buf), int(int32(n))), int32(flags)))
	}
}

// recvEntry adapts Recv to the Winsock calling convention.
func recvEntry(self native.Self) any {
	return func(s, buf, n, flags uintptr) uintptr {
		t, ok := native.As[*Translator](self)
		if !ok {
			return socketError
		}
		return uintptr(t.Recv(win32.Socket(s), native.Bytes(native.Address(buf), int(int32(n))), int32(flags)))
	}
}
