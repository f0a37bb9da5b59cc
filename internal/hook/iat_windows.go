//go:build windows

package hook

import (
	"fmt"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/venusroot/bootstrap/internal/native"
)

const (
	ptrSize          = unsafe.Sizeof(uintptr(0))
	ordinalFlag      = uintptr(1) << (ptrSize*8 - 1)
	dirEntryImport   = 1
	optionalMagic32  = 0x10b
	optionalMagic64  = 0x20b
	dataDirOffset32  = 96
	dataDirOffset64  = 112
	ntSignature      = 0x00004550 // "PE\0\0"
	dosLfanewOffset  = 0x3C
	ntOptionalOffset = 24
)

type imageImportDescriptor struct {
	OriginalFirstThunk uint32
	TimeDateStamp      uint32
	ForwarderChain     uint32
	Name               uint32
	FirstThunk         uint32
}

// IATPrimitive redirects functions by rewriting a loaded module's import
// address table. Sessions are module base addresses; the module's reference
// count is left untouched so Close has nothing to release.
type IATPrimitive struct {
	logger zerolog.Logger
}

// SetLogger implements LogAware.
func (p *IATPrimitive) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// Open implements Primitive.
func (p *IATPrimitive) Open(moduleFileName string) (Session, error) {
	name, err := windows.UTF16PtrFromString(moduleFileName)
	if err != nil {
		return 0, fmt.Errorf("iat: module name %q: %w", moduleFileName, err)
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, name, &h); err != nil {
		return 0, fmt.Errorf("iat: module %q not loaded: %w", moduleFileName, err)
	}
	return Session(h), nil
}

// Replace implements Primitive.
func (p *IATPrimitive) Replace(s Session, functionName string, newAddr native.Address) (native.Address, error) {
	slot, err := importSlot(uintptr(s), functionName)
	if err != nil {
		return 0, err
	}
	return swapSlot(slot, newAddr, functionName, windows.PAGE_READWRITE, windows.VirtualProtect, p.logger)
}

// Close implements Primitive.
func (p *IATPrimitive) Close(Session) error {
	return nil
}

// importSlot returns the address of the import address table entry for
// functionName, searching every imported module of the image at base.
func importSlot(base uintptr, functionName string) (uintptr, error) {
	if base == 0 {
		return 0, fmt.Errorf("iat: nil module")
	}
	if *(*uint16)(at(base, 0)) != 0x5A4D { // "MZ"
		return 0, fmt.Errorf("iat: bad DOS header")
	}
	nt := base + uintptr(*(*uint32)(at(base, dosLfanewOffset)))
	if *(*uint32)(at(nt, 0)) != ntSignature {
		return 0, fmt.Errorf("iat: bad NT header")
	}

	opt := nt + ntOptionalOffset
	var dataDir uintptr
	switch *(*uint16)(at(opt, 0)) {
	case optionalMagic32:
		dataDir = opt + dataDirOffset32
	case optionalMagic64:
		dataDir = opt + dataDirOffset64
	default:
		return 0, fmt.Errorf("iat: unknown optional header")
	}

	importRVA := *(*uint32)(at(dataDir, dirEntryImport*8))
	if importRVA == 0 {
		return 0, fmt.Errorf("iat: module has no imports")
	}

	for desc := base + uintptr(importRVA); ; desc += unsafe.Sizeof(imageImportDescriptor{}) {
		d := (*imageImportDescriptor)(at(desc, 0))
		if d.Name == 0 {
			break
		}
		lookup := d.OriginalFirstThunk
		if lookup == 0 {
			lookup = d.FirstThunk
		}
		for i := uintptr(0); ; i++ {
			thunk := *(*uintptr)(at(base+uintptr(lookup), i*ptrSize))
			if thunk == 0 {
				break
			}
			if thunk&ordinalFlag != 0 {
				continue
			}
			// IMAGE_IMPORT_BY_NAME: 2-byte hint then the name.
			if native.CString(native.Address(base+thunk+2)) == functionName {
				return base + uintptr(d.FirstThunk) + i*ptrSize, nil
			}
		}
	}
	return 0, fmt.Errorf("iat: %s is not imported", functionName)
}

func at(addr, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr + off) //nolint:govet // mapped image memory
}
