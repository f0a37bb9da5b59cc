//go:build !windows

package sdb

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func sendEntry(self native.Self) any {
	return func(s win32.Socket, buf []byte, flags int32) int32 {
		t, ok := native.As[*Translator](self)
		if !ok {
			return -1
		}
		return t.Send(s, buf, flags)
	}
}

func recvEntry(self native.Self) any {
	return func(s win32.Socket, buf []byte, flags int32) int32 {
		t, ok := native.As[*Translator](self)
		if !ok {
			return -1
		}
		return t.Recv(s, buf, flags)
	}
}
