//go:build linux || darwin || freebsd

// Package variant turns the description of a unix OS family into the
// platform.Binding that platform.Build assembles.
package variant

import (
	"sync"

	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/internal/native"
	"github.com/zhangyunhao116/nativeplat/internal/nativemem"
	"github.com/zhangyunhao116/nativeplat/internal/signals"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// openFn loads a shared library. It is overridden in tests.
var openFn = native.Open

// Spec describes one OS family.
type Spec struct {
	Family platform.Family

	// Libc lists candidate names for the C library, tried in order.
	Libc []string

	// Pthread lists candidate names for a separate threads library. When
	// empty, pthread symbols come from libc alone.
	Pthread []string

	Layouts       []abi.Layout
	OverrideLayer conftable.Source
	ProcessName   func() (platform.ProcessName, error)
	Clock         func() (platform.ClockSource, error)
}

// libraries opens each library of a Spec at most once per Binding.
type libraries struct {
	spec    Spec
	mu      sync.Mutex
	libc    *native.Library
	pthread *native.Library
}

func (l *libraries) openLibc() (*native.Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.libc != nil {
		return l.libc, nil
	}
	lib, err := openFn(l.spec.Libc...)
	if err != nil {
		return nil, err
	}
	l.libc = lib
	return lib, nil
}

// threadLibs returns the libraries searched for pthread symbols, the
// threads library first.
func (l *libraries) threadLibs() ([]*native.Library, error) {
	libc, err := l.openLibc()
	if err != nil {
		return nil, err
	}
	if len(l.spec.Pthread) == 0 {
		return []*native.Library{libc}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pthread == nil {
		lib, err := openFn(l.spec.Pthread...)
		if err != nil {
			return nil, err
		}
		l.pthread = lib
	}
	return []*native.Library{l.pthread, libc}, nil
}

// Binding returns the platform.Binding for s. Libraries are opened lazily
// by the first step that needs them.
func Binding(s Spec) *platform.Binding {
	libs := &libraries{spec: s}
	return &platform.Binding{
		Family:        s.Family,
		Layouts:       s.Layouts,
		OverrideLayer: s.OverrideLayer,
		NewFDSet:      platform.NewUnixFDSet,
		NativeAccess: func() (platform.RawMemory, error) {
			libc, err := libs.openLibc()
			if err != nil {
				return nil, err
			}
			mem, err := native.NewMemory(libc)
			if err != nil {
				return nil, err
			}
			return mem, nil
		},
		Posix: func() (platform.Posix, error) {
			return platform.UnixPosix(), nil
		},
		MemoryManager: func() (platform.MemoryManager, error) {
			return nativemem.System(), nil
		},
		SignalManager: func(d platform.SignalDelivery) (platform.SignalManager, error) {
			return signals.New(signals.Table(), d), nil
		},
		ProcessName: s.ProcessName,
		Sockets: func() (platform.Sockets, error) {
			libc, err := libs.openLibc()
			if err != nil {
				return nil, err
			}
			return native.NewSockets(libc)
		},
		Threads: func() (platform.Threads, error) {
			tl, err := libs.threadLibs()
			if err != nil {
				return nil, err
			}
			return native.NewThreads(tl...)
		},
		Clock: s.Clock,
		MallocFree: func() (platform.MallocFree, error) {
			libc, err := libs.openLibc()
			if err != nil {
				return nil, err
			}
			return native.NewMallocFree(libc)
		},
	}
}
