package nativeplat

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// detectPlatformFn assembles the handle for the host OS family. Each
// supported OS sets it in an init function; it is overridden in tests.
var detectPlatformFn = unsupportedPlatform

func unsupportedPlatform(platform.Startup) (*platform.Handle, error) {
	return nil, platform.Unsupported(runtime.GOOS)
}

// process is the handle recorded by Init.
var process struct {
	mu     sync.Mutex
	handle *platform.Handle
}

// New validates cfg, applies opts to a copy of it and assembles a handle
// for the host OS family. On failure it returns a *StartupError (or an
// ErrConfigInvalid error) and no handle.
func New(cfg *Config, opts ...Option) (*Handle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config must not be nil", ErrConfigInvalid)
	}
	c := copyConfig(cfg)
	for _, o := range opts {
		o(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	st, err := c.startup()
	if err != nil {
		return nil, err
	}
	h, err := detectPlatformFn(st)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Init is New for the process handle: it records the handle so that
// Current returns it. A second Init after a successful one fails with
// ErrAlreadyInitialized; a failed Init records nothing.
func Init(cfg *Config, opts ...Option) (*Handle, error) {
	process.mu.Lock()
	defer process.mu.Unlock()
	if process.handle != nil {
		return nil, ErrAlreadyInitialized
	}
	h, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	process.handle = h
	return h, nil
}

// Current returns the handle recorded by Init.
func Current() (*Handle, bool) {
	process.mu.Lock()
	defer process.mu.Unlock()
	return process.handle, process.handle != nil
}

// resetProcess forgets the recorded handle. Used by tests.
func resetProcess() {
	process.mu.Lock()
	defer process.mu.Unlock()
	process.handle = nil
}
