//go:build windows

package mono

import (
	"golang.org/x/sys/windows"

	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// entryBuilders adapt the replacements to the runtime's C signatures.
var entryBuilders = map[string]func(native.Self) any{
	GetProcAddress: func(self native.Self) any {
		return func(module, symbol uintptr) uintptr {
			s, ok := native.As[*Sequencer](self)
			// Lookups by ordinal carry no name worth redirecting.
			if !ok || symbol>>16 == 0 {
				return hostGetProcAddress(module, symbol)
			}
			return uintptr(s.ResolveSymbol(win32.Module(module), native.CString(native.Address(symbol))))
		}
	},
	SymJitInitVersion: func(self native.Self) any {
		return func(domainName, runtimeVersion uintptr) uintptr {
			s, ok := native.As[*Sequencer](self)
			if !ok {
				return 0
			}
			return uintptr(s.InitRuntime(
				native.CString(native.Address(domainName)),
				native.CString(native.Address(runtimeVersion)),
			))
		}
	},
	SymJitParseOptions: func(self native.Self) any {
		return func(argc, argv uintptr) uintptr {
			if s, ok := native.As[*Sequencer](self); ok {
				s.ParseJitOptions(native.CStringArray(native.Address(argv), int(int32(argc))))
			}
			return 0
		}
	},
	SymDebugInit: func(self native.Self) any {
		return func(format uintptr) uintptr {
			if s, ok := native.As[*Sequencer](self); ok {
				s.DebugInit(DebugFormat(int32(format)))
			}
			return 0
		}
	},
}

func hostGetProcAddress(module, symbol uintptr) uintptr {
	if symbol>>16 == 0 {
		addr, _ := windows.GetProcAddressByOrdinal(windows.Handle(module), symbol)
		return addr
	}
	addr, _ := windows.GetProcAddress(windows.Handle(module), native.CString(native.Address(symbol)))
	return addr
}
