//go:build linux || darwin || freebsd

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhangyunhao116/nativeplat/conftable"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [prefix]",
		Short: "Print the merged configuration table",
		Long: `Print every key of the merged configuration table, or only the keys
under prefix (for example "platform.socket").`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, release, err := a.handle(cmd)
			if err != nil {
				return err
			}
			defer release()
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return writeConfig(cmd.OutOrStdout(), h.Configuration(), prefix)
		},
	}
}

// writeConfig prints the keys of tbl under prefix as key = value lines.
func writeConfig(out io.Writer, tbl *conftable.Table, prefix string) error {
	n := 0
	for _, k := range tbl.Keys() {
		if prefix != "" && k != prefix && !strings.HasPrefix(k, prefix+".") {
			continue
		}
		v, _ := tbl.Get(k)
		if s, ok := v.(string); ok {
			v = fmt.Sprintf("%q", s)
		}
		if _, err := fmt.Fprintf(out, "%s = %v\n", k, v); err != nil {
			return err
		}
		n++
	}
	if n == 0 && prefix != "" {
		return fmt.Errorf("no configuration keys under %q", prefix)
	}
	return nil
}
