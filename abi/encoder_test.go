package abi

import (
	"encoding/binary"
	"errors"
	"testing"
)

// byteMemory is a Memory backed by a Go byte slice whose first byte lives
// at address base.
type byteMemory struct {
	base uintptr
	buf  []byte
}

func newByteMemory(base uintptr, size int) *byteMemory {
	return &byteMemory{base: base, buf: make([]byte, size)}
}

func (m *byteMemory) at(addr uintptr, n int) []byte {
	off := int(addr - m.base)
	return m.buf[off : off+n]
}

func (m *byteMemory) PutUint8(addr uintptr, v uint8) { m.at(addr, 1)[0] = v }
func (m *byteMemory) PutUint16(addr uintptr, v uint16) {
	binary.NativeEndian.PutUint16(m.at(addr, 2), v)
}
func (m *byteMemory) PutUint32(addr uintptr, v uint32) {
	binary.NativeEndian.PutUint32(m.at(addr, 4), v)
}
func (m *byteMemory) PutUint64(addr uintptr, v uint64) {
	binary.NativeEndian.PutUint64(m.at(addr, 8), v)
}
func (m *byteMemory) Uint8(addr uintptr) uint8 { return m.at(addr, 1)[0] }
func (m *byteMemory) Uint16(addr uintptr) uint16 {
	return binary.NativeEndian.Uint16(m.at(addr, 2))
}
func (m *byteMemory) Uint32(addr uintptr) uint32 {
	return binary.NativeEndian.Uint32(m.at(addr, 4))
}
func (m *byteMemory) Uint64(addr uintptr) uint64 {
	return binary.NativeEndian.Uint64(m.at(addr, 8))
}

var _ Memory = (*byteMemory)(nil)

var sockaddrIn = Layout{
	Name: "sockaddr_in",
	Size: 16,
	Fields: []Field{
		{Name: "sin_len", Offset: 0, Size: 1},
		{Name: "sin_family", Offset: 1, Size: 1},
		{Name: "sin_port", Offset: 2, Size: 2, Order: Network},
		{Name: "sin_addr", Offset: 4, Size: 4, Order: Network},
	},
}

// ---------------------------------------------------------------------------
// Encoder round trips
// ---------------------------------------------------------------------------

func TestEncoderPutGetRoundTrip(t *testing.T) {
	layout := Layout{
		Name: "sigaction",
		Size: 16,
		Fields: []Field{
			{Name: "sa_handler", Offset: 0, Size: 8},
			{Name: "sa_mask", Offset: 8, Size: 4},
			{Name: "sa_flags", Offset: 12, Size: 4},
		},
	}
	const base = 0x1000
	mem := newByteMemory(base, 16)
	enc, err := NewEncoder(mem, layout)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	handlers := []uint64{0, 1, 0xdeadbeef, 0x7fff_ffff_ffff_ffff, ^uint64(0)}
	for _, h := range handlers {
		if err := enc.Put(base, "sa_handler", h); err != nil {
			t.Fatalf("Put(%#x): %v", h, err)
		}
		got, err := enc.Get(base, "sa_handler")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != h {
			t.Errorf("round trip: got %#x, want %#x", got, h)
		}
		if raw := binary.NativeEndian.Uint64(mem.buf[0:8]); raw != h {
			t.Errorf("offset 0 holds %#x, want %#x", raw, h)
		}
	}
}

func TestEncoderNetworkOrder(t *testing.T) {
	const base = 0x2000
	mem := newByteMemory(base, 16)
	enc, err := NewEncoder(mem, sockaddrIn)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.PutAll(base, map[string]uint64{
		"sin_len":    16,
		"sin_family": 2,
		"sin_port":   14873,
		"sin_addr":   0x7f000001,
	}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	want := []byte{16, 2, 0x3a, 0x19, 127, 0, 0, 1}
	for i, b := range want {
		if mem.buf[i] != b {
			t.Errorf("byte %d = %#x, want %#x", i, mem.buf[i], b)
		}
	}
	port, err := enc.Get(base, "sin_port")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if port != 14873 {
		t.Errorf("sin_port = %d, want 14873", port)
	}
}

func TestEncoderErrors(t *testing.T) {
	const base = 0x3000
	mem := newByteMemory(base, 16)
	enc, err := NewEncoder(mem, sockaddrIn)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	tests := []struct {
		name  string
		field string
		value uint64
		want  error
	}{
		{"unknown field", "sin_flowinfo", 1, ErrUnknownField},
		{"overflow byte", "sin_family", 256, ErrFieldOverflow},
		{"overflow short", "sin_port", 1 << 16, ErrFieldOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := enc.Put(base, tt.field, tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Put() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncoderOpaqueField(t *testing.T) {
	layout := Layout{
		Name: "sigaction",
		Size: 32,
		Fields: []Field{
			{Name: "sa_handler", Offset: 0, Size: 8},
			{Name: "sa_flags", Offset: 8, Size: 4},
			{Name: "sa_mask", Offset: 12, Size: 16},
		},
	}
	enc, err := NewEncoder(newByteMemory(0, 32), layout)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if err := enc.Put(0, "sa_mask", 1); !errors.Is(err, ErrFieldWidth) {
		t.Fatalf("Put(sa_mask) error = %v, want ErrFieldWidth", err)
	}
	if _, err := enc.Get(0, "sa_mask"); !errors.Is(err, ErrFieldWidth) {
		t.Fatalf("Get(sa_mask) error = %v, want ErrFieldWidth", err)
	}
}

func TestEncoderPutAllRejectsBeforeWriting(t *testing.T) {
	const base = 0x4000
	mem := newByteMemory(base, 16)
	enc, err := NewEncoder(mem, sockaddrIn)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	err = enc.PutAll(base, map[string]uint64{"sin_family": 2, "bogus": 1})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("PutAll() error = %v, want ErrUnknownField", err)
	}
	for i, b := range mem.buf {
		if b != 0 {
			t.Fatalf("byte %d written (%#x) despite rejected map", i, b)
		}
	}
}

func TestNewEncoderRejectsInvalid(t *testing.T) {
	if _, err := NewEncoder(nil, sockaddrIn); err == nil {
		t.Fatal("NewEncoder(nil) should fail")
	}
	bad := Layout{Name: "x", Size: 4, Fields: []Field{{Name: "a", Offset: 2, Size: 4}}}
	if _, err := NewEncoder(newByteMemory(0, 8), bad); !errors.Is(err, ErrLayoutInvalid) {
		t.Fatalf("NewEncoder(bad) error = %v, want ErrLayoutInvalid", err)
	}
}
