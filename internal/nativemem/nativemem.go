//go:build linux || darwin || freebsd

// Package nativemem provides the process-wide memory manager: page-aligned
// anonymous mappings that live outside the Go heap and can be handed to
// native code. Every platform handle reuses the same manager.
package nativemem

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrNotMapped indicates a buffer passed to Release was not allocated by the
// manager or was already released.
var ErrNotMapped = errors.New("nativemem: buffer not mapped by this manager")

// Manager tracks live mappings. It is safe for concurrent use.
type Manager struct {
	pageSize int

	mu   sync.Mutex
	live map[uintptr]int // base address -> mapped length
}

var (
	systemOnce sync.Once
	system     *Manager
)

// System returns the shared process-wide Manager.
func System() *Manager {
	systemOnce.Do(func() {
		system = New()
	})
	return system
}

// New returns an independent Manager. Most callers want System.
func New() *Manager {
	return &Manager{
		pageSize: unix.Getpagesize(),
		live:     make(map[uintptr]int),
	}
}

// PageSize returns the system page size.
func (m *Manager) PageSize() int { return m.pageSize }

// Allocate maps at least size zeroed bytes. The returned slice has length
// size; its backing mapping is rounded up to whole pages.
func (m *Manager) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("nativemem: invalid size %d", size)
	}
	length := (size + m.pageSize - 1) &^ (m.pageSize - 1)
	buf, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("nativemem: mmap %d bytes: %w", length, err)
	}
	m.mu.Lock()
	m.live[base(buf)] = length
	m.mu.Unlock()
	return buf[:size], nil
}

// Release unmaps a buffer returned by Allocate. A reslice that no longer
// reaches the end of the mapping is rejected with ErrNotMapped.
func (m *Manager) Release(buf []byte) error {
	if len(buf) == 0 {
		return ErrNotMapped
	}
	addr := base(buf)
	m.mu.Lock()
	length, ok := m.live[addr]
	if ok && cap(buf) < length {
		ok = false
	}
	if ok {
		delete(m.live, addr)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotMapped
	}
	return unix.Munmap(buf[:length:length])
}

// Live returns the number of outstanding mappings.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func base(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}
