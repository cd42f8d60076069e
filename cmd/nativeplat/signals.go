//go:build linux || darwin || freebsd

package main

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zhangyunhao116/nativeplat/platform"
)

func newSignalsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "List the signals known to the signal manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, release, err := a.handle(cmd)
			if err != nil {
				return err
			}
			defer release()
			return writeSignals(cmd.OutOrStdout(), h.SignalManager())
		},
	}
}

// writeSignals prints the signal table ordered by number, then name.
func writeSignals(out io.Writer, sm platform.SignalManager) error {
	table := sm.Signals()
	names := slices.SortedFunc(maps.Keys(table), func(x, y string) int {
		return cmp.Or(cmp.Compare(table[x], table[y]), cmp.Compare(x, y))
	})
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNUMBER\tDESCRIPTION")
	for _, name := range names {
		sig := table[name]
		fmt.Fprintf(tw, "SIG%s\t%d\t%s\n", name, int(sig), sig.String())
	}
	return tw.Flush()
}
