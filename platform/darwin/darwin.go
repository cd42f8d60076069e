//go:build darwin

// Package darwin binds the platform capabilities for macOS.
package darwin

import (
	"embed"

	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/internal/variant"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// libSystem exports libc and pthreads.
const libSystem = "/usr/lib/libSystem.B.dylib"

//go:embed darwin.toml
var overrideFS embed.FS

// OverrideLayer returns the macOS configuration layer.
func OverrideLayer() conftable.Source {
	return conftable.FS("darwin", overrideFS, "darwin.toml")
}

// binding describes macOS. The process name cannot be changed and
// clock_gettime is served by the Go runtime.
func binding() *platform.Binding {
	return variant.Binding(variant.Spec{
		Family:        platform.Darwin,
		Libc:          []string{libSystem},
		Layouts:       Layouts(),
		OverrideLayer: OverrideLayer(),
		ProcessName: func() (platform.ProcessName, error) {
			return variant.ReadOnlyProcessName(), nil
		},
		Clock: func() (platform.ClockSource, error) {
			return platform.ManagedClock(), nil
		},
	})
}

// New assembles the macOS platform.
func New(st platform.Startup) (*platform.Handle, error) {
	return platform.Build(binding(), st)
}
