package platform

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/conftable"
)

// Step identifies one stage of Handle assembly. Steps run in declaration
// order.
type Step int

const (
	// StepLayouts validates the family's struct layouts before anything
	// is bound.
	StepLayouts Step = iota
	StepNativeAccess
	StepPosix
	StepMemoryManager
	StepSignalManager
	StepProcessName
	StepSockets
	StepThreads
	StepClock
	StepMallocFree
	StepConfiguration
)

// String returns the string representation of a Step.
func (s Step) String() string {
	switch s {
	case StepLayouts:
		return "layouts"
	case StepNativeAccess:
		return "native-access"
	case StepPosix:
		return "posix"
	case StepMemoryManager:
		return "memory-manager"
	case StepSignalManager:
		return "signal-manager"
	case StepProcessName:
		return "process-name"
	case StepSockets:
		return "sockets"
	case StepThreads:
		return "threads"
	case StepClock:
		return "clock"
	case StepMallocFree:
		return "malloc-free"
	case StepConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Steps lists every assembly step in execution order.
func Steps() []Step {
	return []Step{
		StepLayouts, StepNativeAccess, StepPosix, StepMemoryManager,
		StepSignalManager, StepProcessName, StepSockets, StepThreads,
		StepClock, StepMallocFree, StepConfiguration,
	}
}

// SigActionLayout is the name every Binding must use for struct sigaction.
const SigActionLayout = "sigaction"

// sigHandlerField is the sigaction member holding the handler address.
const sigHandlerField = "sa_handler"

// Binding describes how one OS family satisfies each assembly step.
// Every function field is required; NativeAccess and Threads are only
// called when native interrupts are enabled.
type Binding struct {
	Family Family

	// Layouts are the family's native struct layouts. One must be named
	// SigActionLayout with sa_handler at offset 0.
	Layouts []abi.Layout

	// OverrideLayer is the family's configuration layer.
	OverrideLayer conftable.Source

	NewFDSet      func() FDSet
	NativeAccess  func() (RawMemory, error)
	Posix         func() (Posix, error)
	MemoryManager func() (MemoryManager, error)
	SignalManager func(SignalDelivery) (SignalManager, error)
	ProcessName   func() (ProcessName, error)
	Sockets       func() (Sockets, error)
	Threads       func() (Threads, error)
	Clock         func() (ClockSource, error)
	MallocFree    func() (MallocFree, error)
}

// Handle is the Platform built by Build.
type Handle struct {
	family   Family
	access   MemoryAccess
	posix    Posix
	memory   MemoryManager
	signals  SignalManager
	procName ProcessName
	sockets  Sockets
	threads  Threads
	clock    ClockSource
	malloc   MallocFree
	config   *conftable.Table
	layouts  map[string]abi.Layout
	newFDSet func() FDSet
}

var _ Platform = (*Handle)(nil)

// Build runs every assembly step of b in order. If any step fails it
// returns a *StartupError and no Handle.
func Build(b *Binding, st Startup) (*Handle, error) {
	if b == nil {
		return nil, &StartupError{Step: StepLayouts, Err: ErrUnsupportedPlatform}
	}
	logger := st.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handle{family: b.Family, newFDSet: b.NewFDSet}
	steps := []struct {
		step Step
		run  func() error
	}{
		{StepLayouts, func() error { return h.bindLayouts(b.Layouts) }},
		{StepNativeAccess, func() error {
			if !st.NativeInterrupt {
				h.access = Unavailable{Reason: "native interrupts disabled"}
				return nil
			}
			mem, err := call(b.NativeAccess)
			if err != nil {
				return err
			}
			h.access = Available{Memory: mem}
			return nil
		}},
		{StepPosix, func() (err error) { h.posix, err = call(b.Posix); return }},
		{StepMemoryManager, func() (err error) { h.memory, err = call(b.MemoryManager); return }},
		{StepSignalManager, func() error {
			if b.SignalManager == nil {
				return errUnbound
			}
			sm, err := b.SignalManager(st.Delivery)
			if err != nil {
				return err
			}
			if sm == nil {
				return errNilComponent
			}
			h.signals = sm
			return nil
		}},
		{StepProcessName, func() (err error) { h.procName, err = call(b.ProcessName); return }},
		{StepSockets, func() (err error) { h.sockets, err = call(b.Sockets); return }},
		{StepThreads, func() error {
			if !st.NativeInterrupt {
				h.threads = NopThreads()
				return nil
			}
			var err error
			h.threads, err = call(b.Threads)
			return err
		}},
		{StepClock, func() (err error) { h.clock, err = call(b.Clock); return }},
		{StepMallocFree, func() (err error) { h.malloc, err = call(b.MallocFree); return }},
		{StepConfiguration, func() error {
			def := st.DefaultLayer
			if def == nil {
				def = conftable.Defaults()
			}
			over := st.OverrideLayer
			if over == nil {
				over = b.OverrideLayer
			}
			tbl, err := conftable.Load(def, over)
			if err != nil {
				return err
			}
			h.config = tbl
			return nil
		}},
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			logger.Debug("platform assembly failed", "family", b.Family, "step", s.step, "err", err)
			return nil, &StartupError{Family: b.Family, Step: s.step, Err: err}
		}
		logger.Debug("platform step bound", "family", b.Family, "step", s.step)
	}
	_, native := h.access.(Available)
	logger.Info("native platform ready",
		"family", b.Family,
		"native_interrupt", native,
		"config_keys", h.config.Len(),
		"clock_native", h.clock.Native())
	return h, nil
}

var (
	errUnbound      = fmt.Errorf("%w: step has no binding", ErrUnsupportedPlatform)
	errNilComponent = fmt.Errorf("binding returned a nil component")
)

// call runs a binding function, treating a missing function or a nil
// result as failure.
func call[T comparable](fn func() (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, errUnbound
	}
	v, err := fn()
	if err != nil {
		return zero, err
	}
	if v == zero {
		return zero, errNilComponent
	}
	return v, nil
}

func (h *Handle) bindLayouts(layouts []abi.Layout) error {
	if h.newFDSet == nil {
		return fmt.Errorf("fd_set constructor: %w", errUnbound)
	}
	h.layouts = make(map[string]abi.Layout, len(layouts))
	for _, l := range layouts {
		if err := l.Validate(); err != nil {
			return err
		}
		l.Fields = slices.Clone(l.Fields)
		h.layouts[l.Name] = l
	}
	sa, ok := h.layouts[SigActionLayout]
	if !ok {
		return fmt.Errorf("%w: no %s layout", ErrLayoutInvalid, SigActionLayout)
	}
	f, ok := sa.Field(sigHandlerField)
	if !ok || f.Offset != 0 || !f.Scalar() {
		return fmt.Errorf("%w: %s.%s must be a scalar at offset 0", ErrLayoutInvalid, SigActionLayout, sigHandlerField)
	}
	return nil
}

func (h *Handle) Family() Family                  { return h.family }
func (h *Handle) NativeAccess() MemoryAccess      { return h.access }
func (h *Handle) Posix() Posix                    { return h.posix }
func (h *Handle) MemoryManager() MemoryManager    { return h.memory }
func (h *Handle) SignalManager() SignalManager    { return h.signals }
func (h *Handle) ProcessName() ProcessName        { return h.procName }
func (h *Handle) Sockets() Sockets                { return h.sockets }
func (h *Handle) ClockSource() ClockSource        { return h.clock }
func (h *Handle) Threads() Threads                { return h.threads }
func (h *Handle) MallocFree() MallocFree          { return h.malloc }
func (h *Handle) Configuration() *conftable.Table { return h.config }
func (h *Handle) NewFDSet() FDSet                 { return h.newFDSet() }

// Layout returns a copy of the named struct layout.
func (h *Handle) Layout(name string) (abi.Layout, bool) {
	l, ok := h.layouts[name]
	l.Fields = slices.Clone(l.Fields)
	return l, ok
}

// CreateSigAction allocates a zeroed struct sigaction with sa_handler set
// to handler. Any handler value, including 0 (SIG_DFL), is stored as is;
// whether it is a valid function address is the caller's responsibility.
func (h *Handle) CreateSigAction(handler uintptr) (uintptr, error) {
	return h.encode("CreateSigAction", SigActionLayout, map[string]uint64{sigHandlerField: uint64(handler)})
}

// EncodeStruct allocates the named struct, zeroes it and writes values.
func (h *Handle) EncodeStruct(layout string, values map[string]uint64) (uintptr, error) {
	return h.encode("EncodeStruct", layout, values)
}

func (h *Handle) encode(op, name string, values map[string]uint64) (uintptr, error) {
	var mem RawMemory
	switch a := h.access.(type) {
	case Available:
		mem = a.Memory
	case Unavailable:
		return 0, &CapabilityError{Capability: "native memory access (" + a.Reason + ")", Op: op}
	default:
		return 0, &CapabilityError{Capability: "native memory access", Op: op}
	}

	l, ok := h.layouts[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	enc, err := abi.NewEncoder(mem, l)
	if err != nil {
		return 0, err
	}
	addr, err := mem.Allocate(l.Size)
	if err != nil {
		return 0, err
	}
	mem.Zero(addr, l.Size)
	if err := enc.PutAll(addr, values); err != nil {
		mem.Free(addr)
		return 0, err
	}
	return addr, nil
}
