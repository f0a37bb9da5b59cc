//go:build windows

package mono

import (
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/venusroot/bootstrap/internal/native"
)

// BindExports calls the captured exports directly.
func BindExports(e Exports) Functions {
	return exportTable(e)
}

type exportTable Exports

func (t exportTable) call(name string, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(uintptr(t[name]), args...)
	return r
}

// cstr returns a NUL-terminated copy of s. Callers keep the result alive
// across the call with runtime.KeepAlive.
func cstr(s string) *byte {
	p, err := windows.BytePtrFromString(s)
	if err != nil {
		// Interior NUL: truncate like the C side would.
		b := append([]byte(s[:indexNUL(s)]), 0)
		return &b[0]
	}
	return p
}

func indexNUL(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return i
		}
	}
	return len(s)
}

func (t exportTable) JitInitVersion(domainName, runtimeVersion string) Domain {
	d, v := cstr(domainName), cstr(runtimeVersion)
	r := t.call(SymJitInitVersion, uintptr(unsafe.Pointer(d)), uintptr(unsafe.Pointer(v)))
	runtime.KeepAlive(d)
	runtime.KeepAlive(v)
	return Domain(r)
}

func (t exportTable) JitParseOptions(argv []string) {
	ptrs := make([]*byte, len(argv)+1)
	for i, a := range argv {
		ptrs[i] = cstr(a)
	}
	t.call(SymJitParseOptions, uintptr(len(argv)), uintptr(unsafe.Pointer(&ptrs[0])))
	runtime.KeepAlive(ptrs)
}

func (t exportTable) ThreadCurrent() Thread {
	return Thread(t.call(SymThreadCurrent))
}

func (t exportTable) ThreadSetMain(th Thread) {
	t.call(SymThreadSetMain, uintptr(th))
}

func (t exportTable) DebugEnabled() bool {
	return int32(t.call(SymDebugEnabled)) != 0
}

func (t exportTable) DebugInit(format DebugFormat) {
	t.call(SymDebugInit, uintptr(format))
}

func (t exportTable) SetAssembliesPath(path string) {
	p := cstr(path)
	t.call(SymSetAssembliesPath, uintptr(unsafe.Pointer(p)))
	runtime.KeepAlive(p)
}

func (t exportTable) AssemblyGetRootDir() string {
	return native.CString(native.Address(t.call(SymAssemblyGetRootDir)))
}

func (t exportTable) DomainAssemblyOpen(d Domain, path string) Assembly {
	p := cstr(path)
	r := t.call(SymDomainAssemblyOpen, uintptr(d), uintptr(unsafe.Pointer(p)))
	runtime.KeepAlive(p)
	return Assembly(r)
}

func (t exportTable) AssemblyGetImage(a Assembly) Image {
	return Image(t.call(SymAssemblyGetImage, uintptr(a)))
}

func (t exportTable) ClassFromName(img Image, namespace, name string) Class {
	ns, n := cstr(namespace), cstr(name)
	r := t.call(SymClassFromName, uintptr(img), uintptr(unsafe.Pointer(ns)), uintptr(unsafe.Pointer(n)))
	runtime.KeepAlive(ns)
	runtime.KeepAlive(n)
	return Class(r)
}

func (t exportTable) ClassGetMethodFromName(c Class, name string, paramCount int32) Method {
	n := cstr(name)
	r := t.call(SymClassGetMethodFromName, uintptr(c), uintptr(unsafe.Pointer(n)), uintptr(paramCount))
	runtime.KeepAlive(n)
	return Method(r)
}

func (t exportTable) RuntimeInvoke(m Method) uintptr {
	// Heap allocated so the runtime writes through stable pointers.
	exc := new(uintptr)
	noArgs := new([1]uintptr)
	t.call(SymRuntimeInvoke, uintptr(m), 0, uintptr(unsafe.Pointer(noArgs)), uintptr(unsafe.Pointer(exc)))
	runtime.KeepAlive(noArgs)
	return *exc
}

func (t exportTable) DomainSetConfig(d Domain, baseDir, configFileName string) {
	b, c := cstr(baseDir), cstr(configFileName)
	t.call(SymDomainSetConfig, uintptr(d), uintptr(unsafe.Pointer(b)), uintptr(unsafe.Pointer(c)))
	runtime.KeepAlive(b)
	runtime.KeepAlive(c)
}

func (t exportTable) ConfigParse(fileName string) {
	if fileName == "" {
		t.call(SymConfigParse, 0)
		return
	}
	f := cstr(fileName)
	t.call(SymConfigParse, uintptr(unsafe.Pointer(f)))
	runtime.KeepAlive(f)
}
