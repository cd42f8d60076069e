//go:build linux || darwin || freebsd

package native

import (
	"fmt"
	"unsafe"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// Memory is the raw memory accessor. Allocation goes through the C heap so
// that blocks may be handed to native code and freed there.
type Memory struct {
	alloc platform.MallocFree
}

var _ platform.RawMemory = (*Memory)(nil)

// NewMemory binds a raw memory accessor to libc's allocator.
func NewMemory(libc *Library) (*Memory, error) {
	mf, err := NewMallocFree(libc)
	if err != nil {
		return nil, err
	}
	return &Memory{alloc: mf}, nil
}

// Allocate returns size bytes from malloc.
func (m *Memory) Allocate(size uintptr) (uintptr, error) {
	if size == 0 {
		return 0, fmt.Errorf("%w: zero-sized allocation", platform.ErrAllocation)
	}
	addr := m.alloc.Malloc(size)
	if addr == 0 {
		return 0, fmt.Errorf("%w: malloc(%d) returned NULL", platform.ErrAllocation, size)
	}
	return addr, nil
}

// Free releases a block from Allocate.
func (m *Memory) Free(addr uintptr) {
	if addr != 0 {
		m.alloc.Free(addr)
	}
}

// Zero clears size bytes at addr.
func (m *Memory) Zero(addr, size uintptr) {
	clear(bytesAt(addr, size))
}

// Dlopen loads a library by name.
func (m *Memory) Dlopen(name string) (uintptr, error) {
	lib, err := Open(name)
	if err != nil {
		return 0, err
	}
	return lib.Handle(), nil
}

// Dlsym resolves symbol in the library handle lib.
func (m *Memory) Dlsym(lib uintptr, symbol string) (uintptr, error) {
	return (&Library{name: fmt.Sprintf("handle %#x", lib), handle: lib}).Lookup(symbol)
}

func (m *Memory) PutUint8(addr uintptr, v uint8)   { *(*uint8)(ptr(addr)) = v }
func (m *Memory) PutUint16(addr uintptr, v uint16) { *(*uint16)(ptr(addr)) = v }
func (m *Memory) PutUint32(addr uintptr, v uint32) { *(*uint32)(ptr(addr)) = v }
func (m *Memory) PutUint64(addr uintptr, v uint64) { *(*uint64)(ptr(addr)) = v }
func (m *Memory) Uint8(addr uintptr) uint8         { return *(*uint8)(ptr(addr)) }
func (m *Memory) Uint16(addr uintptr) uint16       { return *(*uint16)(ptr(addr)) }
func (m *Memory) Uint32(addr uintptr) uint32       { return *(*uint32)(ptr(addr)) }
func (m *Memory) Uint64(addr uintptr) uint64       { return *(*uint64)(ptr(addr)) }

// ptr converts a C heap address. The memory is not managed by the Go
// garbage collector.
//
//go:nocheckptr
func ptr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet
}

func bytesAt(addr, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr(addr)), size)
}
