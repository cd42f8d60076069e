//go:build freebsd

// Package freebsd binds the platform capabilities for FreeBSD.
package freebsd

import (
	"embed"

	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/internal/variant"
	"github.com/zhangyunhao116/nativeplat/platform"
)

const (
	libc   = "libc.so.7"
	libthr = "libthr.so.3"
)

//go:embed freebsd.toml
var overrideFS embed.FS

// OverrideLayer returns the FreeBSD configuration layer.
func OverrideLayer() conftable.Source {
	return conftable.FS("freebsd", overrideFS, "freebsd.toml")
}

func binding() *platform.Binding {
	return variant.Binding(variant.Spec{
		Family:        platform.FreeBSD,
		Libc:          []string{libc},
		Pthread:       []string{libthr},
		Layouts:       Layouts(),
		OverrideLayer: OverrideLayer(),
		ProcessName: func() (platform.ProcessName, error) {
			return variant.ReadOnlyProcessName(), nil
		},
		Clock: func() (platform.ClockSource, error) {
			return platform.NativeClock(), nil
		},
	})
}

// New assembles the FreeBSD platform.
func New(st platform.Startup) (*platform.Handle, error) {
	return platform.Build(binding(), st)
}
