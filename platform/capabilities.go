package platform

import (
	"os"
	"syscall"
	"time"
	"unsafe"
)

// Posix is the subset of POSIX process calls the runtime needs directly.
type Posix interface {
	Getpid() int
	Getppid() int
	Getuid() int
	Geteuid() int
	Getgid() int
	Kill(pid int, sig syscall.Signal) error
	Getcwd() (string, error)
	Umask(mask int) int
	Uname() (Uname, error)
}

// Uname holds the fields of struct utsname.
type Uname struct {
	Sysname  string
	Nodename string
	Release  string
	Version  string
	Machine  string
}

// Sockets is the native socket function table. Methods mirror the C
// signatures: they return the C result (negative on failure) and take
// pointers as addresses.
type Sockets interface {
	Getaddrinfo(node, service string, hints, res uintptr) int
	Freeaddrinfo(ai uintptr)
	GaiStrerror(code int) string
	Getnameinfo(sa uintptr, salen int, host uintptr, hostlen int, serv uintptr, servlen int, flags int) int
	Socket(domain, typ, protocol int) int
	Setsockopt(fd, level, name int, value uintptr, length int) int
	Getsockopt(fd, level, name int, value, length uintptr) int
	Bind(fd int, addr uintptr, length int) int
	Listen(fd, backlog int) int
	Accept(fd int, addr, length uintptr) int
	Gethostname(name uintptr, length int) int
	Getpeername(fd int, addr, length uintptr) int
	Getsockname(fd int, addr, length uintptr) int
}

// Threads is the native thread function table used to interrupt threads.
type Threads interface {
	// PthreadSelf returns the calling thread's pthread_t.
	PthreadSelf() uintptr

	// PthreadKill sends sig to thread and returns 0 or an errno value.
	PthreadKill(thread uintptr, sig int) int
}

// MallocFree is the C allocator function table.
type MallocFree interface {
	Malloc(size uintptr) uintptr
	Free(addr uintptr)
}

// ClockID selects a clock for ClockSource.ClockGettime.
type ClockID int

const (
	// ClockRealtime is wall-clock time.
	ClockRealtime ClockID = iota

	// ClockMonotonic never goes backwards; its origin is unspecified.
	ClockMonotonic

	// ClockProcessCPUTime is CPU time consumed by the process.
	ClockProcessCPUTime

	// ClockThreadCPUTime is CPU time consumed by the calling thread.
	ClockThreadCPUTime
)

// String returns the C name of a ClockID.
func (c ClockID) String() string {
	switch c {
	case ClockRealtime:
		return "CLOCK_REALTIME"
	case ClockMonotonic:
		return "CLOCK_MONOTONIC"
	case ClockProcessCPUTime:
		return "CLOCK_PROCESS_CPUTIME_ID"
	case ClockThreadCPUTime:
		return "CLOCK_THREAD_CPUTIME_ID"
	default:
		return "CLOCK_UNKNOWN"
	}
}

// Timespec is seconds plus nanoseconds.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Duration converts ts to a time.Duration.
func (ts Timespec) Duration() time.Duration {
	return time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)
}

// ClockSource reads clocks.
type ClockSource interface {
	ClockGettime(id ClockID) (Timespec, error)

	// Native reports whether the clock calls clock_gettime(2).
	Native() bool
}

// ProcessName reads and, where the OS allows it, changes the name the
// process shows in ps and top.
type ProcessName interface {
	CanSet() bool
	Set(name string) error
	Get() (string, error)
}

// MemoryManager hands out page-aligned buffers outside the Go heap.
type MemoryManager interface {
	Allocate(size int) ([]byte, error)
	Release(buf []byte) error
	PageSize() int
}

// FDSet is a native fd_set for select(2).
type FDSet interface {
	Set(fd int)
	Clear(fd int)
	IsSet(fd int) bool
	Zero()

	// Pointer returns the address of the underlying fd_set.
	Pointer() unsafe.Pointer

	// WordSize is the width in bytes of one bitmap word.
	WordSize() int
}

// SignalHandler runs on the dispatch goroutine when sig is delivered.
type SignalHandler func(sig syscall.Signal)

// SignalManager maps signals to handlers and installs native dispositions.
// Register and Unregister are safe for concurrent use.
type SignalManager interface {
	// Signals returns the signal table of this OS family, keyed by name
	// without the SIG prefix.
	Signals() map[string]syscall.Signal

	// Lookup resolves a name such as "INT" or "SIGINT".
	Lookup(name string) (syscall.Signal, error)

	// Register installs handler for sig, replacing any previous handler.
	Register(sig syscall.Signal, handler SignalHandler) error

	// Ignore sets the disposition of sig to SIG_IGN and drops its handler.
	Ignore(sig syscall.Signal) error

	// Unregister restores the default disposition of sig.
	Unregister(sig syscall.Signal) error

	// Handler returns the handler registered for sig.
	Handler(sig syscall.Signal) (SignalHandler, bool)

	// Raise sends sig to the current process.
	Raise(sig syscall.Signal) error
}

// SignalDelivery is the mechanism that actually installs dispositions and
// delivers signals to a channel.
type SignalDelivery interface {
	Install(c chan<- os.Signal, sig syscall.Signal)
	Remove(c chan<- os.Signal, sig syscall.Signal)
	Ignore(sig syscall.Signal)
	Raise(sig syscall.Signal) error
}
