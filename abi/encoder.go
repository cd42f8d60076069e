package abi

import (
	"encoding/binary"
	"fmt"
)

// Memory is typed access to native memory at absolute addresses.
// Implementations perform no bounds checking.
type Memory interface {
	PutUint8(addr uintptr, v uint8)
	PutUint16(addr uintptr, v uint16)
	PutUint32(addr uintptr, v uint32)
	PutUint64(addr uintptr, v uint64)
	Uint8(addr uintptr) uint8
	Uint16(addr uintptr) uint16
	Uint32(addr uintptr) uint32
	Uint64(addr uintptr) uint64
}

// Encoder writes and reads the fields of one Layout.
type Encoder struct {
	mem    Memory
	layout Layout
}

// NewEncoder validates layout and returns an Encoder bound to mem.
func NewEncoder(mem Memory, layout Layout) (*Encoder, error) {
	if mem == nil {
		return nil, fmt.Errorf("abi: memory must not be nil")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{mem: mem, layout: layout}, nil
}

// Layout returns the layout the encoder was built for.
func (e *Encoder) Layout() Layout { return e.layout }

// Put writes v into the named field of the struct at base.
func (e *Encoder) Put(base uintptr, name string, v uint64) error {
	f, err := e.scalar(name)
	if err != nil {
		return err
	}
	if f.Size < 8 && v>>(8*f.Size) != 0 {
		return fmt.Errorf("%w: %s.%s holds %d bytes, got %#x", ErrFieldOverflow, e.layout.Name, name, f.Size, v)
	}
	if f.Order == Network {
		v = swap(v, f.Size)
	}
	addr := base + f.Offset
	switch f.Size {
	case 1:
		e.mem.PutUint8(addr, uint8(v))
	case 2:
		e.mem.PutUint16(addr, uint16(v))
	case 4:
		e.mem.PutUint32(addr, uint32(v))
	case 8:
		e.mem.PutUint64(addr, v)
	}
	return nil
}

// Get reads the named field of the struct at base.
func (e *Encoder) Get(base uintptr, name string) (uint64, error) {
	f, err := e.scalar(name)
	if err != nil {
		return 0, err
	}
	addr := base + f.Offset
	var v uint64
	switch f.Size {
	case 1:
		v = uint64(e.mem.Uint8(addr))
	case 2:
		v = uint64(e.mem.Uint16(addr))
	case 4:
		v = uint64(e.mem.Uint32(addr))
	case 8:
		v = e.mem.Uint64(addr)
	}
	if f.Order == Network {
		v = swap(v, f.Size)
	}
	return v, nil
}

// PutAll writes every entry of values. It stops at the first error.
func (e *Encoder) PutAll(base uintptr, values map[string]uint64) error {
	// Validate all names first so a bad map never leaves a half-written struct.
	for name := range values {
		if _, err := e.scalar(name); err != nil {
			return err
		}
	}
	for name, v := range values {
		if err := e.Put(base, name, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) scalar(name string) (Field, error) {
	f, ok := e.layout.Field(name)
	if !ok {
		return Field{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, e.layout.Name, name)
	}
	if !f.Scalar() {
		return Field{}, fmt.Errorf("%w: %s.%s is %d bytes", ErrFieldWidth, e.layout.Name, name, f.Size)
	}
	return f, nil
}

// swap converts between host order and big-endian for a size-byte value.
func swap(v uint64, size uintptr) uint64 {
	var buf [8]byte
	switch size {
	case 2:
		binary.BigEndian.PutUint16(buf[:], uint16(v))
		return uint64(binary.NativeEndian.Uint16(buf[:]))
	case 4:
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		return uint64(binary.NativeEndian.Uint32(buf[:]))
	case 8:
		binary.BigEndian.PutUint64(buf[:], v)
		return binary.NativeEndian.Uint64(buf[:])
	default:
		return v
	}
}
