package hook

import (
	"fmt"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/venusroot/bootstrap/internal/native"
)

// protectFunc has the shape of VirtualProtect.
type protectFunc func(addr, size uintptr, newProtect uint32, oldProtect *uint32) error

// swapSlot writes newAddr into the pointer-sized slot under a temporary
// writable protection and returns what it held. Once the slot is written the
// swap has happened: a failure to restore the protection is only logged, so
// the caller still records the redirection and can undo it.
func swapSlot(slot uintptr, newAddr native.Address, functionName string, writable uint32, protect protectFunc, logger zerolog.Logger) (native.Address, error) {
	size := unsafe.Sizeof(uintptr(0))

	var old uint32
	if err := protect(slot, size, writable, &old); err != nil {
		return 0, fmt.Errorf("iat: unprotect %s: %w", functionName, err)
	}

	entry := (*uintptr)(unsafe.Pointer(slot)) //nolint:govet // import address table slot
	previous := native.Address(*entry)
	*entry = uintptr(newAddr)

	var ignored uint32
	if err := protect(slot, size, old, &ignored); err != nil {
		logger.Warn().Err(err).Str("function", functionName).Msg("Failed to restore import slot protection")
	}
	return previous, nil
}
