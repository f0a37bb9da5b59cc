// Package constants defines shared configuration constants.
package constants

import "path/filepath"

var (
	// LoaderDir is the loader's directory under the content root, which is
	// the game directory.
	LoaderDir = "VenusRootLoader"

	ConfigFile = filepath.Join(LoaderDir, "config.yaml")

	DefaultLogFile = filepath.Join(LoaderDir, "Logs", "bootstrap.log")

	// ProjectName is advertised to debuggers as the player's project.
	ProjectName = "Bug Fables"

	DefaultDebuggerIP = "127.0.0.1"

	// DefaultDebuggerPort is the first port of the range Unity players listen on.
	DefaultDebuggerPort uint16 = 56000

	// DefaultBCLDir holds the unstripped base class library shipped with the loader.
	DefaultBCLDir = "UnityJitMonoBcl"

	DefaultEntrypointAssembly  = filepath.Join(LoaderDir, "VenusRootLoader.dll")
	DefaultEntrypointNamespace = "VenusRootLoader"
	DefaultEntrypointClass     = "MonoInitEntry"
	DefaultEntrypointMethod    = "Main"

	// PlayerModule is the Unity host library whose imports are hooked.
	PlayerModule = "UnityPlayer.dll"
)

const (
	// EnvConfig overrides the configuration file path.
	EnvConfig = "VENUS_CONFIG"

	// EnvDebuggerAgentOverride replaces synthesized debugger-agent arguments
	// verbatim. The name is shared with dnSpy's Unity debugging tooling.
	EnvDebuggerAgentOverride = "DNSPY_UNITY_DBG2"
)
