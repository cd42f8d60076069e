package nativeplat

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// Platform is the capability interface of a handle.
// It is an alias for platform.Platform.
type Platform = platform.Platform

// Handle is the assembled platform.
// It is an alias for platform.Handle.
type Handle = platform.Handle

// Config controls how the platform handle is assembled.
type Config struct {
	// NativeInterrupt enables raw memory access (and with it
	// CreateSigAction) and native pthread control. When false, NativeAccess
	// reports Unavailable and Threads is a no-op table.
	NativeInterrupt bool

	// DefaultLayerPath replaces the embedded default configuration layer
	// with a TOML file.
	DefaultLayerPath string

	// OverrideLayerPath replaces the OS family's configuration layer with a
	// TOML file.
	OverrideLayerPath string

	// DefaultLayer and OverrideLayer supply layers directly. Each is
	// mutually exclusive with the matching path.
	DefaultLayer  conftable.Source
	OverrideLayer conftable.Source

	// Delivery installs native signal dispositions. If nil, os/signal is
	// used.
	Delivery platform.SignalDelivery

	// Logger receives assembly progress. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with native interrupts disabled and the
// built-in configuration layers.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	errs = validateLayer(errs, "DefaultLayer", c.DefaultLayerPath, c.DefaultLayer)
	errs = validateLayer(errs, "OverrideLayer", c.OverrideLayerPath, c.OverrideLayer)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(errs, "; "))
	}
	return nil
}

func validateLayer(errs []string, field, path string, src conftable.Source) []string {
	if path == "" {
		return errs
	}
	if src != nil {
		errs = append(errs, fmt.Sprintf("%sPath: conflicts with %s", field, field))
	}
	if ext := filepath.Ext(path); ext != ".toml" {
		errs = append(errs, fmt.Sprintf("%sPath: %q must be a .toml file", field, path))
	}
	return errs
}

// startup resolves c into the platform.Startup handed to the OS binding.
// Relative layer paths are made absolute.
func (c *Config) startup() (platform.Startup, error) {
	st := platform.Startup{
		NativeInterrupt: c.NativeInterrupt,
		DefaultLayer:    c.DefaultLayer,
		OverrideLayer:   c.OverrideLayer,
		Delivery:        c.Delivery,
		Logger:          c.Logger,
	}
	var err error
	if c.DefaultLayerPath != "" {
		if st.DefaultLayer, err = fileLayer("default", c.DefaultLayerPath); err != nil {
			return platform.Startup{}, err
		}
	}
	if c.OverrideLayerPath != "" {
		if st.OverrideLayer, err = fileLayer("override", c.OverrideLayerPath); err != nil {
			return platform.Startup{}, err
		}
	}
	if st.Logger == nil {
		st.Logger = slog.Default()
	}
	return st, nil
}

func fileLayer(name, path string) (conftable.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve %s layer path %q: %w", ErrConfigInvalid, name, path, err)
	}
	return conftable.File(name, abs), nil
}

// copyConfig returns a shallow copy of cfg. Sources, Delivery and Logger
// are shared by reference.
func copyConfig(cfg *Config) *Config {
	c := *cfg
	return &c
}
