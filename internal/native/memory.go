package native

import "unsafe"

// maxCString bounds CString scans over foreign memory.
const maxCString = 1 << 16

// CString reads a NUL-terminated narrow string at addr.
func CString(addr Address) string {
	if addr == 0 {
		return ""
	}
	p := unsafe.Pointer(uintptr(addr)) //nolint:govet // host memory
	n := 0
	for n < maxCString && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// WString reads a NUL-terminated UTF-16 string at addr.
func WString(addr Address) []uint16 {
	if addr == 0 {
		return nil
	}
	p := unsafe.Pointer(uintptr(addr)) //nolint:govet // host memory
	n := 0
	for n < maxCString && *(*uint16)(unsafe.Add(p, n*2)) != 0 {
		n++
	}
	return unsafe.Slice((*uint16)(p), n)
}

// CStringArray reads argc narrow strings from a char** at argv.
func CStringArray(argv Address, argc int) []string {
	if argv == 0 || argc <= 0 {
		return nil
	}
	ptrs := unsafe.Slice((*uintptr)(unsafe.Pointer(uintptr(argv))), argc) //nolint:govet // host memory
	out := make([]string, argc)
	for i, p := range ptrs {
		out[i] = CString(Address(p))
	}
	return out
}

// Bytes views n bytes of host memory at addr without copying.
func Bytes(addr Address, n int) []byte {
	if addr == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n) //nolint:govet // host memory
}

// PutUint32 stores v at addr when addr is not null.
func PutUint32(addr Address, v uint32) {
	if addr == 0 {
		return
	}
	*(*uint32)(unsafe.Pointer(uintptr(addr))) = v //nolint:govet // host memory
}

// PutInt64 stores v at addr when addr is not null.
func PutInt64(addr Address, v int64) {
	if addr == 0 {
		return
	}
	*(*int64)(unsafe.Pointer(uintptr(addr))) = v //nolint:govet // host memory
}
