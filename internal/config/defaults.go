package config

import "github.com/venusroot/bootstrap/internal/constants"

// DefaultBootstrapConfig returns the built-in configuration layer.
func DefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Logging: LoggingConfig{
			Level:            "info",
			Pretty:           true,
			File:             constants.DefaultLogFile,
			IncludeUnityLogs: true,
		},
		Debugger: DebuggerConfig{
			Enable:        false,
			IPAddress:     constants.DefaultDebuggerIP,
			Port:          constants.DefaultDebuggerPort,
			SuspendOnBoot: false,
		},
		Hooks: HooksConfig{
			Layering: "immediate-prior",
		},
		Runtime: RuntimeConfig{
			BCLDir: constants.DefaultBCLDir,
		},
		Entrypoint: EntrypointConfig{
			Assembly:  constants.DefaultEntrypointAssembly,
			Namespace: constants.DefaultEntrypointNamespace,
			Class:     constants.DefaultEntrypointClass,
			Method:    constants.DefaultEntrypointMethod,
		},
	}
}
