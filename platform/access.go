package platform

import "github.com/zhangyunhao116/nativeplat/abi"

// RawMemory reads and writes native memory at absolute addresses and
// resolves library symbols. It owns no memory itself.
type RawMemory interface {
	abi.Memory

	// Allocate returns size bytes from the C heap, or an error wrapping
	// ErrAllocation.
	Allocate(size uintptr) (uintptr, error)

	// Free returns memory obtained from Allocate.
	Free(addr uintptr)

	// Zero clears size bytes starting at addr.
	Zero(addr, size uintptr)

	// Dlopen loads a shared library and returns its handle.
	Dlopen(name string) (uintptr, error)

	// Dlsym resolves symbol in the library handle lib.
	Dlsym(lib uintptr, symbol string) (uintptr, error)
}

// MemoryAccess is either Available or Unavailable. Callers type-switch on
// it; there is no nil state.
type MemoryAccess interface {
	memoryAccess()
}

// Available carries the raw memory accessor of a handle built with native
// interrupts enabled.
type Available struct {
	Memory RawMemory
}

// Unavailable records that native interrupts were disabled at startup.
type Unavailable struct {
	Reason string
}

func (Available) memoryAccess()   {}
func (Unavailable) memoryAccess() {}
