//go:build !windows

package filehook

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

func createFileEntry(self native.Self) any {
	return func(args win32.CreateFileArgs) win32.Handle {
		m, ok := native.As[*Multiplexer](self)
		if !ok {
			return win32.InvalidHandle
		}
		return m.Open(args)
	}
}
