// Package config provides the bootstrap's layered configuration: built-in
// defaults, then a YAML file, then VENUS_* environment variables.
package config

// BootstrapConfig is the root configuration document.
type BootstrapConfig struct {
	// Disabled turns the whole bootstrap into a no-op.
	Disabled bool `yaml:"disabled" env:"VENUS_DISABLED"`

	Logging    LoggingConfig       `yaml:"logging"`
	Debugger   DebuggerConfig      `yaml:"debugger"`
	Hooks      HooksConfig         `yaml:"hooks"`
	Runtime    RuntimeConfig       `yaml:"runtime"`
	Entrypoint EntrypointConfig    `yaml:"entrypoint"`
	BootConfig BootConfigOverrides `yaml:"boot_config"`
}

// LoggingConfig configures the bootstrap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"VENUS_LOG_LEVEL" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`
	Pretty bool   `yaml:"pretty" env:"VENUS_LOG_PRETTY"`
	// File is relative to the content root unless absolute. Empty disables it.
	File string `yaml:"file" env:"VENUS_LOG_FILE"`
	// IncludeUnityLogs mirrors the player's own log output into this logger.
	IncludeUnityLogs bool `yaml:"include_unity_logs" env:"VENUS_LOG_INCLUDE_UNITY_LOGS"`
}

// DebuggerConfig configures the embedded runtime's debugger agent.
type DebuggerConfig struct {
	Enable        bool   `yaml:"enable" env:"VENUS_DEBUGGER_ENABLE"`
	IPAddress     string `yaml:"ip_address" env:"VENUS_DEBUGGER_IP_ADDRESS" jsonschema:"format=ipv4"`
	Port          uint16 `yaml:"port" env:"VENUS_DEBUGGER_PORT"`
	SuspendOnBoot bool   `yaml:"suspend_on_boot" env:"VENUS_DEBUGGER_SUSPEND_ON_BOOT"`
}

// HooksConfig configures the hook registry.
type HooksConfig struct {
	// Layering is "immediate-prior" or "preserve-original".
	Layering string `yaml:"layering" env:"VENUS_HOOKS_LAYERING" jsonschema:"enum=immediate-prior,enum=preserve-original"`
}

// RuntimeConfig configures the embedded runtime before it initialises.
type RuntimeConfig struct {
	// BCLDir is searched for assemblies before the runtime's own root.
	// Relative to the content root unless absolute.
	BCLDir string `yaml:"bcl_dir" env:"VENUS_RUNTIME_BCL_DIR"`
}

// EntrypointConfig names the managed method control is handed to.
type EntrypointConfig struct {
	// Assembly is relative to the content root unless absolute.
	Assembly  string `yaml:"assembly" env:"VENUS_ENTRYPOINT_ASSEMBLY"`
	Namespace string `yaml:"namespace" env:"VENUS_ENTRYPOINT_NAMESPACE"`
	Class     string `yaml:"class" env:"VENUS_ENTRYPOINT_CLASS"`
	Method    string `yaml:"method" env:"VENUS_ENTRYPOINT_METHOD"`
}

// BootConfigOverrides replaces the game's boot.config when any key is set.
// Field order is the order keys are written in. Nil fields are omitted, apart
// from the first key, which is always written.
type BootConfigOverrides struct {
	GfxEnableNativeGfxJobs  *bool   `yaml:"gfx-enable-native-gfx-jobs,omitempty" env:"VENUS_BOOT_CONFIG_GFX_ENABLE_NATIVE_GFX_JOBS"`
	WaitForNativeDebugger   *bool   `yaml:"wait-for-native-debugger,omitempty" env:"VENUS_BOOT_CONFIG_WAIT_FOR_NATIVE_DEBUGGER"`
	ScriptingRuntimeVersion *string `yaml:"scripting-runtime-version,omitempty" env:"VENUS_BOOT_CONFIG_SCRIPTING_RUNTIME_VERSION"`
	VrEnabled               *bool   `yaml:"vr-enabled,omitempty" env:"VENUS_BOOT_CONFIG_VR_ENABLED"`
	HdrDisplayEnabled       *bool   `yaml:"hdr-display-enabled,omitempty" env:"VENUS_BOOT_CONFIG_HDR_DISPLAY_ENABLED"`

	WaitForManagedDebugger          *bool   `yaml:"wait-for-managed-debugger,omitempty" env:"VENUS_BOOT_CONFIG_WAIT_FOR_MANAGED_DEBUGGER"`
	MonoCodegen                     *string `yaml:"mono-codegen,omitempty" env:"VENUS_BOOT_CONFIG_MONO_CODEGEN"`
	MaxNumLoopsNoJobBeforeGoingIdle *int    `yaml:"max-num-loops-no-job-before-going-idle,omitempty" env:"VENUS_BOOT_CONFIG_MAX_NUM_LOOPS_NO_JOB_BEFORE_GOING_IDLE"`
	PreloadManagerThreadStackSize   *int    `yaml:"preload-manager-thread-stack-size,omitempty" env:"VENUS_BOOT_CONFIG_PRELOAD_MANAGER_THREAD_STACK_SIZE"`

	ForceGfxDirect        *bool `yaml:"force-gfx-direct,omitempty" env:"VENUS_BOOT_CONFIG_FORCE_GFX_DIRECT"`
	ForceGfxSt            *bool `yaml:"force-gfx-st,omitempty" env:"VENUS_BOOT_CONFIG_FORCE_GFX_ST"`
	ForceGfxMt            *bool `yaml:"force-gfx-mt,omitempty" env:"VENUS_BOOT_CONFIG_FORCE_GFX_MT"`
	ForceGfxJobs          *bool `yaml:"force-gfx-jobs,omitempty" env:"VENUS_BOOT_CONFIG_FORCE_GFX_JOBS"`
	GfxEnableGfxJobs      *bool `yaml:"gfx-enable-gfx-jobs,omitempty" env:"VENUS_BOOT_CONFIG_GFX_ENABLE_GFX_JOBS"`
	GfxJobsSync           *bool `yaml:"gfx-jobs-sync,omitempty" env:"VENUS_BOOT_CONFIG_GFX_JOBS_SYNC"`
	GfxDisableMtRendering *bool `yaml:"gfx-disable-mt-rendering,omitempty" env:"VENUS_BOOT_CONFIG_GFX_DISABLE_MT_RENDERING"`

	HTTPFilesystemEnable *bool   `yaml:"http-filesystem-enable,omitempty" env:"VENUS_BOOT_CONFIG_HTTP_FILESYSTEM_ENABLE"`
	HTTPFilesystemPrefix *string `yaml:"http-filesystem-prefix,omitempty" env:"VENUS_BOOT_CONFIG_HTTP_FILESYSTEM_PREFIX"`
	HTTPFilesystemAPIKey *string `yaml:"http-filesystem-apikey,omitempty" env:"VENUS_BOOT_CONFIG_HTTP_FILESYSTEM_APIKEY"`
	HTTPFilesystemPubKey *string `yaml:"http-filesystem-pubkey,omitempty" env:"VENUS_BOOT_CONFIG_HTTP_FILESYSTEM_PUBKEY"`

	PlayerConnectionIP            *string `yaml:"player-connection-ip,omitempty" env:"VENUS_BOOT_CONFIG_PLAYER_CONNECTION_IP"`
	PlayerConnectionMode          *string `yaml:"player-connection-mode,omitempty" env:"VENUS_BOOT_CONFIG_PLAYER_CONNECTION_MODE"`
	PlayerConnectionDebug         *bool   `yaml:"player-connection-debug,omitempty" env:"VENUS_BOOT_CONFIG_PLAYER_CONNECTION_DEBUG"`
	PlayerConnectionGUID          *int    `yaml:"player-connection-guid,omitempty" env:"VENUS_BOOT_CONFIG_PLAYER_CONNECTION_GUID"`
	PlayerConnectionListenAddress *string `yaml:"player-connection-listen-address,omitempty" env:"VENUS_BOOT_CONFIG_PLAYER_CONNECTION_LISTEN_ADDRESS"`
	PlayerConnectionWaitTimeout   *int    `yaml:"player-connection-wait-timeout,omitempty" env:"VENUS_BOOT_CONFIG_PLAYER_CONNECTION_WAIT_TIMEOUT"`

	ProfilerMaxPoolMemory   *int  `yaml:"profiler-maxpoolmemory,omitempty" env:"VENUS_BOOT_CONFIG_PROFILER_MAXPOOLMEMORY"`
	ProfilerMaxUsedMemory   *int  `yaml:"profiler-maxusedmemory,omitempty" env:"VENUS_BOOT_CONFIG_PROFILER_MAXUSEDMEMORY"`
	ProfilerEnableOnStartup *bool `yaml:"profiler-enable-on-startup,omitempty" env:"VENUS_BOOT_CONFIG_PROFILER_ENABLE_ON_STARTUP"`

	Headless       *bool `yaml:"headless,omitempty" env:"VENUS_BOOT_CONFIG_HEADLESS"`
	SingleInstance *bool `yaml:"single-instance,omitempty" env:"VENUS_BOOT_CONFIG_SINGLE_INSTANCE"`
}
