//go:build linux || darwin || freebsd

// Package varianttest holds the checks every OS family package runs
// against its own binding.
package varianttest

import (
	"errors"
	"strings"
	"testing"

	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/conftable"
	"github.com/zhangyunhao116/nativeplat/platform"
)

// NewHandle builds a handle through newFn and closes its signal manager
// when the test ends.
func NewHandle(t *testing.T, newFn func(platform.Startup) (*platform.Handle, error), native bool) *platform.Handle {
	t.Helper()
	h, err := newFn(platform.Startup{NativeInterrupt: native})
	if err != nil {
		t.Fatalf("New(native=%v): %v", native, err)
	}
	t.Cleanup(func() {
		if c, ok := h.SignalManager().(interface{ Close() }); ok {
			c.Close()
		}
	})
	return h
}

// CheckLayouts validates every layout.
func CheckLayouts(t *testing.T, layouts []abi.Layout) {
	t.Helper()
	for _, l := range layouts {
		if err := l.Validate(); err != nil {
			t.Errorf("%s: %v", l.Name, err)
		}
	}
}

// CheckConstants compares configuration keys with host constants.
func CheckConstants(t *testing.T, cfg *conftable.Table, want map[string]int64) {
	t.Helper()
	for key, w := range want {
		got, ok := cfg.Int(key)
		if !ok {
			t.Errorf("%s missing", key)
			continue
		}
		if got != w {
			t.Errorf("%s = %d, want %d", key, got, w)
		}
	}
}

// CheckSignals requires every platform.signal key to agree with the
// handle's signal table.
func CheckSignals(t *testing.T, h *platform.Handle) {
	t.Helper()
	cfg := h.Configuration()
	n := 0
	for _, key := range cfg.Keys() {
		name, ok := strings.CutPrefix(key, "platform.signal.SIG")
		if !ok {
			continue
		}
		n++
		v, _ := cfg.Int(key)
		sig, err := h.SignalManager().Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%s): %v", name, err)
			continue
		}
		if int64(sig) != v {
			t.Errorf("%s = %d, signal table says %d", key, v, sig)
		}
	}
	if n == 0 {
		t.Fatal("configuration has no signal keys")
	}
}

// CheckLayoutKeys requires the platform.<layout> keys to describe layouts
// and platform.select.word_size to match the fd_set implementation.
func CheckLayoutKeys(t *testing.T, h *platform.Handle, layouts []abi.Layout) {
	t.Helper()
	cfg := h.Configuration()
	for _, l := range layouts {
		size, ok := cfg.Int("platform." + l.Name + ".sizeof")
		if !ok || uintptr(size) != l.Size {
			t.Errorf("platform.%s.sizeof = %d, %v; layout size %d", l.Name, size, ok, l.Size)
		}
		for _, f := range l.Fields {
			off, ok := cfg.Int("platform." + l.Name + "." + f.Name)
			if !ok || uintptr(off) != f.Offset {
				t.Errorf("platform.%s.%s = %d, %v; layout offset %d", l.Name, f.Name, off, ok, f.Offset)
			}
		}
	}
	ws, _ := cfg.Int("platform.select.word_size")
	if got := h.NewFDSet().WordSize(); int64(got) != ws {
		t.Errorf("fd_set word size = %d, configuration says %d", got, ws)
	}
}

// CheckSigAction creates a sigaction through a native handle and checks
// that only sa_handler is non-zero.
func CheckSigAction(t *testing.T, h *platform.Handle) {
	t.Helper()
	avail, ok := h.NativeAccess().(platform.Available)
	if !ok {
		t.Fatalf("NativeAccess() = %#v, want Available", h.NativeAccess())
	}
	layout, ok := h.Layout(platform.SigActionLayout)
	if !ok {
		t.Fatal("no sigaction layout")
	}
	const handler = uintptr(0xdeadbeef)
	addr, err := h.CreateSigAction(handler)
	if err != nil {
		t.Fatalf("CreateSigAction: %v", err)
	}
	defer avail.Memory.Free(addr)

	if got := avail.Memory.Uint64(addr); got != uint64(handler) {
		t.Errorf("sa_handler = %#x, want %#x", got, handler)
	}
	for off := uintptr(8); off < layout.Size; off++ {
		if b := avail.Memory.Uint8(addr + off); b != 0 {
			t.Fatalf("byte %d = %#x, want 0", off, b)
		}
	}
}

// CheckUnavailable checks a handle built without native interrupts.
func CheckUnavailable(t *testing.T, h *platform.Handle) {
	t.Helper()
	if _, ok := h.NativeAccess().(platform.Unavailable); !ok {
		t.Errorf("NativeAccess() = %#v, want Unavailable", h.NativeAccess())
	}
	if h.Threads() != platform.NopThreads() {
		t.Error("Threads() is not the nop table")
	}
	_, err := h.CreateSigAction(1)
	if !errors.Is(err, platform.ErrCapabilityUnavailable) {
		t.Errorf("CreateSigAction() error = %v, want ErrCapabilityUnavailable", err)
	}
}

// CheckStepFailures breaks each assembly step of a fresh binding in turn
// and requires Build to fail at exactly that step with no handle.
func CheckStepFailures(t *testing.T, binding func() *platform.Binding) {
	t.Helper()
	injected := errors.New("injected")
	tests := []struct {
		step   platform.Step
		mutate func(b *platform.Binding)
	}{
		{platform.StepLayouts, func(b *platform.Binding) {
			var kept []abi.Layout
			for _, l := range b.Layouts {
				if l.Name != platform.SigActionLayout {
					kept = append(kept, l)
				}
			}
			b.Layouts = kept
		}},
		{platform.StepNativeAccess, func(b *platform.Binding) {
			b.NativeAccess = func() (platform.RawMemory, error) { return nil, injected }
		}},
		{platform.StepPosix, func(b *platform.Binding) {
			b.Posix = func() (platform.Posix, error) { return nil, injected }
		}},
		{platform.StepMemoryManager, func(b *platform.Binding) {
			b.MemoryManager = func() (platform.MemoryManager, error) { return nil, injected }
		}},
		{platform.StepSignalManager, func(b *platform.Binding) {
			b.SignalManager = func(platform.SignalDelivery) (platform.SignalManager, error) { return nil, injected }
		}},
		{platform.StepProcessName, func(b *platform.Binding) {
			b.ProcessName = func() (platform.ProcessName, error) { return nil, injected }
		}},
		{platform.StepSockets, func(b *platform.Binding) {
			b.Sockets = func() (platform.Sockets, error) { return nil, injected }
		}},
		{platform.StepThreads, func(b *platform.Binding) {
			b.Threads = func() (platform.Threads, error) { return nil, injected }
		}},
		{platform.StepClock, func(b *platform.Binding) {
			b.Clock = func() (platform.ClockSource, error) { return nil, injected }
		}},
		{platform.StepMallocFree, func(b *platform.Binding) {
			b.MallocFree = func() (platform.MallocFree, error) { return nil, injected }
		}},
		{platform.StepConfiguration, func(b *platform.Binding) {
			b.OverrideLayer = conftable.File("missing", "/nonexistent/override.toml")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			b := binding()
			tt.mutate(b)
			h, err := platform.Build(b, platform.Startup{NativeInterrupt: true})
			if h != nil {
				t.Fatal("Build returned a handle")
			}
			var se *platform.StartupError
			if !errors.As(err, &se) || se.Step != tt.step {
				t.Fatalf("error = %v, want StartupError at %v", err, tt.step)
			}
			if se.Family != b.Family {
				t.Errorf("Family = %v, want %v", se.Family, b.Family)
			}
		})
	}
}
