//go:build linux || darwin || freebsd

package platform

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// fdSet wraps unix.FdSet, whose word size follows the OS family
// (4 bytes on darwin, 8 on linux and freebsd).
type fdSet struct {
	set unix.FdSet
}

// NewUnixFDSet returns an empty fd_set.
func NewUnixFDSet() FDSet {
	return &fdSet{}
}

func (s *fdSet) valid(fd int) bool {
	return fd >= 0 && fd < len(s.set.Bits)*8*s.WordSize()
}

func (s *fdSet) Set(fd int) {
	if s.valid(fd) {
		s.set.Set(fd)
	}
}

func (s *fdSet) Clear(fd int) {
	if s.valid(fd) {
		s.set.Clear(fd)
	}
}

func (s *fdSet) IsSet(fd int) bool {
	return s.valid(fd) && s.set.IsSet(fd)
}

func (s *fdSet) Zero() { s.set.Zero() }

func (s *fdSet) Pointer() unsafe.Pointer { return unsafe.Pointer(&s.set) }

func (s *fdSet) WordSize() int { return int(unsafe.Sizeof(s.set.Bits[0])) }
