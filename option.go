package nativeplat

import (
	"log/slog"

	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// Option adjusts the Config of a single New or Init call.
type Option func(*Config)

// WithNativeInterrupt enables or disables native-interrupt capabilities.
func WithNativeInterrupt(enabled bool) Option {
	return func(c *Config) {
		c.NativeInterrupt = enabled
	}
}

// WithLayers sets both configuration layers. A nil source keeps the
// built-in layer.
func WithLayers(def, override conftable.Source) Option {
	return func(c *Config) {
		c.DefaultLayer = def
		c.OverrideLayer = override
		c.DefaultLayerPath = ""
		c.OverrideLayerPath = ""
	}
}

// WithLayerFiles reads the configuration layers from TOML files. An empty
// path keeps the built-in layer.
func WithLayerFiles(def, override string) Option {
	return func(c *Config) {
		c.DefaultLayerPath = def
		c.OverrideLayerPath = override
		c.DefaultLayer = nil
		c.OverrideLayer = nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithDelivery sets the signal delivery mechanism.
func WithDelivery(d platform.SignalDelivery) Option {
	return func(c *Config) {
		c.Delivery = d
	}
}
