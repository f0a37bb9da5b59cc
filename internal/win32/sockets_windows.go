//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modws2_32  = windows.NewLazySystemDLL("ws2_32.dll")
	procRecv   = modws2_32.NewProc("recv")
	procSend   = modws2_32.NewProc("send")
	procSendTo = modws2_32.NewProc("sendto")
)

// Winsock implements Sockets by calling ws2_32 directly, bypassing any import
// table hooks installed on other modules.
type Winsock struct{}

// Recv implements Sockets.
func (Winsock) Recv(s Socket, buf []byte, flags int32) int32 {
	r, _, _ := procRecv.Call(uintptr(s), bufPtr(buf), uintptr(len(buf)), uintptr(flags))
	return int32(r)
}

// Send implements Sockets.
func (Winsock) Send(s Socket, buf []byte, flags int32) int32 {
	r, _, _ := procSend.Call(uintptr(s), bufPtr(buf), uintptr(len(buf)), uintptr(flags))
	return int32(r)
}

// SendTo implements Sockets.
func (Winsock) SendTo(s Socket, buf []byte, flags int32, to uintptr, toLen int32) int32 {
	r, _, _ := procSendTo.Call(uintptr(s), bufPtr(buf), uintptr(len(buf)), uintptr(flags), to, uintptr(toLen))
	return int32(r)
}

func bufPtr(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}
