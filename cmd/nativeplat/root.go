//go:build linux || darwin || freebsd

package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhangyunhao116/nativeplat"
)

// envPrefix is the prefix of environment variables that set flags, e.g.
// NATIVEPLAT_NATIVE_INTERRUPT=true.
const envPrefix = "NATIVEPLAT"

// app carries the settings shared by every subcommand.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "nativeplat",
		Short:         "Inspect and exercise the native platform layer",
		SilenceUsage:  true,
	}
	root.SetErrPrefix("nativeplat:")

	pf := root.PersistentFlags()
	pf.Bool("native-interrupt", false, "bind raw memory access and native threads")
	pf.String("default-layer", "", "TOML file replacing the built-in default configuration layer")
	pf.String("override-layer", "", "TOML file replacing the OS family configuration layer")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = v.BindPFlags(pf)

	a := &app{v: v}
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		_, err := log.ParseLevel(v.GetString("log-level"))
		return err
	}
	root.AddCommand(
		newInfoCmd(a),
		newConfigCmd(a),
		newSignalsCmd(a),
		newServeCmd(a),
	)
	return root
}

// logger returns an slog.Logger backed by a charm logger writing to w.
func (a *app) logger(w io.Writer) *slog.Logger {
	lvl, err := log.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		lvl = log.WarnLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Prefix:          "nativeplat",
		Level:           lvl,
		ReportTimestamp: true,
	}))
}

// config builds the nativeplat configuration from flags and environment.
func (a *app) config(cmd *cobra.Command) *nativeplat.Config {
	cfg := nativeplat.DefaultConfig()
	cfg.NativeInterrupt = a.v.GetBool("native-interrupt")
	cfg.DefaultLayerPath = a.v.GetString("default-layer")
	cfg.OverrideLayerPath = a.v.GetString("override-layer")
	cfg.Logger = a.logger(cmd.ErrOrStderr())
	return cfg
}

// handle assembles a platform handle for one command. The returned
// function releases its signal dispositions.
func (a *app) handle(cmd *cobra.Command, opts ...nativeplat.Option) (*nativeplat.Handle, func(), error) {
	h, err := nativeplat.New(a.config(cmd), opts...)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := h.SignalManager().(interface{ Close() }); ok {
			c.Close()
		}
	}
	return h, release, nil
}
