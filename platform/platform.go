package platform

import (
	"log/slog"

	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/conftable"
)

// Platform is the single capability object handed to the runtime. It is
// immutable after construction and safe for concurrent use; the signal
// manager is the only component with mutating operations.
type Platform interface {
	// Family returns the OS family this handle was built for.
	Family() Family

	// NativeAccess reports whether raw memory access was enabled at startup.
	NativeAccess() MemoryAccess

	// Posix returns the POSIX function table.
	Posix() Posix

	// MemoryManager returns the process-wide memory manager.
	MemoryManager() MemoryManager

	// SignalManager returns the signal manager.
	SignalManager() SignalManager

	// ProcessName returns the process-name accessor for this OS family.
	ProcessName() ProcessName

	// Sockets returns the socket function table.
	Sockets() Sockets

	// ClockSource returns the clock used by the runtime.
	ClockSource() ClockSource

	// Threads returns the thread function table. Without native interrupts
	// it is a no-op implementation.
	Threads() Threads

	// MallocFree returns the C allocator function table.
	MallocFree() MallocFree

	// Configuration returns the merged configuration table.
	Configuration() *conftable.Table

	// NewFDSet returns an empty fd_set sized for this OS family.
	NewFDSet() FDSet

	// CreateSigAction allocates a struct sigaction whose sa_handler is
	// handler and returns its address. The caller owns the memory and must
	// keep it alive for as long as the kernel may reference it. It fails
	// with ErrCapabilityUnavailable when native interrupts are disabled.
	CreateSigAction(handler uintptr) (uintptr, error)

	// Layout returns the named struct layout (e.g., "sigaction", "sockaddr_in").
	Layout(name string) (abi.Layout, bool)

	// EncodeStruct allocates the named struct, zeroes it, writes values and
	// returns its address. Ownership passes to the caller.
	EncodeStruct(layout string, values map[string]uint64) (uintptr, error)
}

// Family identifies a supported OS family.
type Family int

const (
	// FamilyUnknown is the zero value and never has a Binding.
	FamilyUnknown Family = iota

	// Linux is the linux family (glibc, 64-bit).
	Linux

	// Darwin is macOS.
	Darwin

	// FreeBSD is FreeBSD.
	FreeBSD
)

// String returns the GOOS-style name of a Family.
func (f Family) String() string {
	switch f {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	case FreeBSD:
		return "freebsd"
	default:
		return "unknown"
	}
}

// ParseFamily maps a GOOS value to a Family.
func ParseFamily(goos string) Family {
	switch goos {
	case "linux":
		return Linux
	case "darwin":
		return Darwin
	case "freebsd":
		return FreeBSD
	default:
		return FamilyUnknown
	}
}

// Startup carries the runtime options consumed while building a Handle.
type Startup struct {
	// NativeInterrupt enables raw memory access and native thread control.
	NativeInterrupt bool

	// DefaultLayer is the first configuration layer. If nil,
	// conftable.Defaults() is used.
	DefaultLayer conftable.Source

	// OverrideLayer is the second configuration layer. If nil, the OS
	// family's own layer is used.
	OverrideLayer conftable.Source

	// Delivery installs native signal dispositions. If nil, the OS family
	// uses os/signal.
	Delivery SignalDelivery

	// Logger receives assembly progress. If nil, slog.Default() is used.
	Logger *slog.Logger
}
