// Package mono drives the embedded runtime's startup from inside the host:
// it captures the runtime's exports, redirects the three entry points the
// player uses to bring the runtime up, and hands control to managed code.
package mono

import (
	"fmt"
	"strings"

	"github.com/venusroot/bootstrap/internal/native"
	"github.com/venusroot/bootstrap/internal/win32"
)

// Opaque runtime handles.
type (
	Domain   uintptr
	Assembly uintptr
	Image    uintptr
	Class    uintptr
	Method   uintptr
	Thread   uintptr
)

// DebugFormat is the argument of mono_debug_init.
type DebugFormat int32

const (
	DebugFormatNone DebugFormat = iota
	DebugFormatMono
	DebugFormatDebugger
)

// Exported symbol names.
const (
	SymRuntimeInvoke          = "mono_runtime_invoke"
	SymJitInitVersion         = "mono_jit_init_version"
	SymJitParseOptions        = "mono_jit_parse_options"
	SymThreadCurrent          = "mono_thread_current"
	SymDebugEnabled           = "mono_debug_enabled"
	SymDebugInit              = "mono_debug_init"
	SymThreadSetMain          = "mono_thread_set_main"
	SymSetAssembliesPath      = "mono_set_assemblies_path"
	SymAssemblyGetRootDir     = "mono_assembly_getrootdir"
	SymDomainAssemblyOpen     = "mono_domain_assembly_open"
	SymAssemblyGetImage       = "mono_assembly_get_image"
	SymClassFromName          = "mono_class_from_name"
	SymClassGetMethodFromName = "mono_class_get_method_from_name"
	SymDomainSetConfig        = "mono_domain_set_config"
	SymConfigParse            = "mono_config_parse"
)

// RequiredExports lists every export the sequencer calls.
var RequiredExports = []string{
	SymRuntimeInvoke,
	SymJitInitVersion,
	SymJitParseOptions,
	SymThreadCurrent,
	SymDebugEnabled,
	SymDebugInit,
	SymThreadSetMain,
	SymSetAssembliesPath,
	SymAssemblyGetRootDir,
	SymDomainAssemblyOpen,
	SymAssemblyGetImage,
	SymClassFromName,
	SymClassGetMethodFromName,
	SymDomainSetConfig,
	SymConfigParse,
}

// Functions is the runtime's exported API as the sequencer uses it.
type Functions interface {
	JitInitVersion(domainName, runtimeVersion string) Domain
	JitParseOptions(argv []string)
	ThreadCurrent() Thread
	ThreadSetMain(t Thread)
	DebugEnabled() bool
	DebugInit(format DebugFormat)
	SetAssembliesPath(path string)
	AssemblyGetRootDir() string
	DomainAssemblyOpen(d Domain, path string) Assembly
	AssemblyGetImage(a Assembly) Image
	ClassFromName(img Image, namespace, name string) Class
	ClassGetMethodFromName(c Class, name string, paramCount int32) Method
	// RuntimeInvoke calls a static method without arguments and returns the
	// thrown exception object, or 0.
	RuntimeInvoke(m Method) (exception uintptr)
	DomainSetConfig(d Domain, baseDir, configFileName string)
	// ConfigParse parses fileName, or the default config when empty.
	ConfigParse(fileName string)
}

// Exports maps export names to their addresses.
type Exports map[string]native.Address

// Binder turns captured exports into callable Functions.
type Binder func(Exports) Functions

// MissingExportsError reports required exports the runtime module lacks.
type MissingExportsError struct {
	Module  win32.Module
	Missing []string
}

// Error implements the error interface.
func (e *MissingExportsError) Error() string {
	return fmt.Sprintf("runtime module 0x%X is missing exports: %s", uintptr(e.Module), strings.Join(e.Missing, ", "))
}

// CaptureExports resolves every required export from module.
func CaptureExports(loader win32.Loader, module win32.Module) (Exports, error) {
	exports := make(Exports, len(RequiredExports))
	var missing []string
	for _, name := range RequiredExports {
		addr := loader.GetProcAddress(module, name)
		if addr == 0 {
			missing = append(missing, name)
			continue
		}
		exports[name] = addr
	}

	if len(missing) > 0 {
		return nil, &MissingExportsError{Module: module, Missing: missing}
	}
	return exports, nil
}
