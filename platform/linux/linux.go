//go:build linux

// Package linux binds the platform capabilities for 64-bit Linux with a
// glibc-compatible C library.
package linux

import (
	"embed"
	"fmt"
	"strconv"

	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/internal/variant"
	"github.com/zhangyunhao116/nativeplat/platform"
)

const (
	libc       = "libc.so.6"
	libpthread = "libpthread.so.0"
)

//go:embed linux.toml
var overrideFS embed.FS

// wordSize is the native word size in bits, overridden in tests.
var wordSize = strconv.IntSize

// OverrideLayer returns the Linux configuration layer.
func OverrideLayer() conftable.Source {
	return conftable.FS("linux", overrideFS, "linux.toml")
}

// binding describes Linux. Since glibc 2.34 the pthread symbols live in
// libc, so libc is also a candidate for the threads library.
func binding() *platform.Binding {
	return variant.Binding(variant.Spec{
		Family:        platform.Linux,
		Libc:          []string{libc},
		Pthread:       []string{libpthread, libc},
		Layouts:       Layouts(),
		OverrideLayer: OverrideLayer(),
		ProcessName: func() (platform.ProcessName, error) {
			return processName{}, nil
		},
		Clock: func() (platform.ClockSource, error) {
			return platform.NativeClock(), nil
		},
	})
}

// New assembles the Linux platform. Only 64-bit builds are supported.
func New(st platform.Startup) (*platform.Handle, error) {
	if wordSize != 64 {
		return nil, &platform.StartupError{
			Family: platform.Linux,
			Step:   platform.StepLayouts,
			Err:    fmt.Errorf("%w: %d-bit linux", platform.ErrUnsupportedPlatform, wordSize),
		}
	}
	return platform.Build(binding(), st)
}
