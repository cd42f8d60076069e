package abi

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors returned by the abi package.
var (
	// ErrLayoutInvalid indicates a layout failed validation.
	ErrLayoutInvalid = errors.New("abi: invalid layout")

	// ErrUnknownField indicates a field name is not part of the layout.
	ErrUnknownField = errors.New("abi: unknown field")

	// ErrFieldWidth indicates a field is not a scalar of 1, 2, 4 or 8 bytes.
	ErrFieldWidth = errors.New("abi: field is not a scalar")

	// ErrFieldOverflow indicates a value does not fit in the field width.
	ErrFieldOverflow = errors.New("abi: value overflows field")
)

// ByteOrder selects how a scalar field is stored.
type ByteOrder int

const (
	// Native stores the value in host byte order.
	Native ByteOrder = iota

	// Network stores the value big-endian (e.g., sin_port, sin_addr).
	Network
)

// String returns the string representation of a ByteOrder.
func (o ByteOrder) String() string {
	switch o {
	case Native:
		return "native"
	case Network:
		return "network"
	default:
		return "unknown"
	}
}

// Field describes one member of a native structure.
type Field struct {
	// Name is the C member name (e.g., "sa_handler").
	Name string

	// Offset is the byte offset of the member from the start of the struct.
	Offset uintptr

	// Size is the width of the member in bytes. Scalars are 1, 2, 4 or 8
	// bytes; anything else is treated as an opaque region.
	Size uintptr

	// Order is the byte order used for scalar members.
	Order ByteOrder
}

// Scalar reports whether the field can be written by the Encoder.
func (f Field) Scalar() bool {
	switch f.Size {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// Layout describes a fixed-size native structure.
type Layout struct {
	// Name is the C struct name (e.g., "sigaction").
	Name string

	// Size is sizeof(struct Name), including trailing padding.
	Size uintptr

	// Fields lists the members that callers may address. Padding and
	// members the runtime never touches may be omitted.
	Fields []Field
}

// Field returns the named field.
func (l Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Offset returns the offset of the named field.
func (l Layout) Offset(name string) (uintptr, error) {
	f, ok := l.Field(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownField, l.Name, name)
	}
	return f.Offset, nil
}

// Validate checks that every field lies inside the struct, scalar fields
// are naturally aligned, and no two fields overlap.
func (l Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: layout name must not be empty", ErrLayoutInvalid)
	}
	if l.Size == 0 {
		return fmt.Errorf("%w: %s: size must be positive", ErrLayoutInvalid, l.Name)
	}

	seen := make(map[string]struct{}, len(l.Fields))
	for _, f := range l.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s: field name must not be empty", ErrLayoutInvalid, l.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrLayoutInvalid, l.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Size == 0 {
			return fmt.Errorf("%w: %s.%s: size must be positive", ErrLayoutInvalid, l.Name, f.Name)
		}
		if f.Offset+f.Size > l.Size {
			return fmt.Errorf("%w: %s.%s: [%d,%d) exceeds struct size %d",
				ErrLayoutInvalid, l.Name, f.Name, f.Offset, f.Offset+f.Size, l.Size)
		}
		if f.Scalar() && f.Offset%f.Size != 0 {
			return fmt.Errorf("%w: %s.%s: offset %d is not %d-byte aligned",
				ErrLayoutInvalid, l.Name, f.Name, f.Offset, f.Size)
		}
	}

	sorted := append([]Field(nil), l.Fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Offset+prev.Size > cur.Offset {
			return fmt.Errorf("%w: %s: fields %s and %s overlap",
				ErrLayoutInvalid, l.Name, prev.Name, cur.Name)
		}
	}
	return nil
}
