//go:build !windows

package mono

import (
	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

var entryBuilders = map[string]func(native.Self) any{
	GetProcAddress: func(self native.Self) any {
		return func(module win32.Module, symbol string) native.Address {
			s, ok := native.As[*Sequencer](self)
			if !ok {
				return 0
			}
			return s.ResolveSymbol(module, symbol)
		}
	},
	SymJitInitVersion: func(self native.Self) any {
		return func(domainName, runtimeVersion string) Domain {
			s, ok := native.As[*Sequencer](self)
			if !ok {
				return 0
			}
			return s.InitRuntime(domainName, runtimeVersion)
		}
	},
	SymJitParseOptions: func(self native.Self) any {
		return func(argv []string) {
			if s, ok := native.As[*Sequencer](self); ok {
				s.ParseJitOptions(argv)
			}
		}
	},
	SymDebugInit: func(self native.Self) any {
		return func(format DebugFormat) {
			if s, ok := native.As[*Sequencer](self); ok {
				s.DebugInit(format)
			}
		}
	},
}
