//go:build linux || darwin || freebsd

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/cobra"

	"github.com/zhangyunhao116/nativeplat"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// hostInfoFn reports host facts, overridden in tests.
var hostInfoFn = host.Info

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the assembled platform and host facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, release, err := a.handle(cmd)
			if err != nil {
				return err
			}
			defer release()
			return writeInfo(cmd.OutOrStdout(), h)
		},
	}
}

func writeInfo(out io.Writer, h *nativeplat.Handle) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	row := func(k string, v any) { fmt.Fprintf(tw, "%s\t%v\n", k, v) }

	row("family", h.Family())
	switch a := h.NativeAccess().(type) {
	case platform.Available:
		row("native access", "available")
	case platform.Unavailable:
		row("native access", "unavailable ("+a.Reason+")")
	}
	clock := "managed"
	if h.ClockSource().Native() {
		clock = "clock_gettime"
	}
	row("clock", clock)
	if ts, err := h.ClockSource().ClockGettime(platform.ClockMonotonic); err == nil {
		row("monotonic", ts.Duration())
	}

	px := h.Posix()
	row("pid", px.Getpid())
	row("ppid", px.Getppid())
	row("uid", px.Getuid())
	if u, err := px.Uname(); err == nil {
		row("uname", u.Sysname+" "+u.Release+" "+u.Machine)
	}
	if name, err := h.ProcessName().Get(); err == nil {
		row("process name", name)
	}
	row("process name settable", h.ProcessName().CanSet())
	row("page size", h.MemoryManager().PageSize())
	row("fd_set word size", h.NewFDSet().WordSize())
	row("config keys", h.Configuration().Len())

	if hi, err := hostInfoFn(); err == nil {
		row("hostname", hi.Hostname)
		row("platform", hi.Platform+" "+hi.PlatformVersion)
		row("kernel", hi.KernelVersion+" "+hi.KernelArch)
		row("uptime", (time.Duration(hi.Uptime) * time.Second).String())
	}
	return tw.Flush()
}
