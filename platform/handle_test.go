package platform

import (
	"encoding/binary"
	"errors"
	"os"
	"syscall"
	"testing"
	"unsafe"

	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/conftable"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeMemory is a RawMemory backed by Go-owned pages at synthetic addresses.
type fakeMemory struct {
	next   uintptr
	blocks map[uintptr][]byte
	freed  []uintptr
	fail   bool
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{next: 0x10000, blocks: make(map[uintptr][]byte)}
}

func (m *fakeMemory) at(addr uintptr, n uintptr) []byte {
	for base, b := range m.blocks {
		if addr >= base && addr+n <= base+uintptr(len(b)) {
			return b[addr-base : addr-base+n]
		}
	}
	panic("fakeMemory: access outside any block")
}

func (m *fakeMemory) Allocate(size uintptr) (uintptr, error) {
	if m.fail {
		return 0, ErrAllocation
	}
	addr := m.next
	m.blocks[addr] = make([]byte, size)
	for i := range m.blocks[addr] {
		m.blocks[addr][i] = 0xAA // garbage, to prove Zero runs
	}
	m.next += (size + 15) &^ 15
	return addr, nil
}

func (m *fakeMemory) Free(addr uintptr) {
	delete(m.blocks, addr)
	m.freed = append(m.freed, addr)
}

func (m *fakeMemory) Zero(addr, size uintptr) { clear(m.at(addr, size)) }

func (m *fakeMemory) Dlopen(string) (uintptr, error)         { return 1, nil }
func (m *fakeMemory) Dlsym(uintptr, string) (uintptr, error) { return 2, nil }
func (m *fakeMemory) PutUint8(a uintptr, v uint8)            { m.at(a, 1)[0] = v }
func (m *fakeMemory) PutUint16(a uintptr, v uint16)          { binary.NativeEndian.PutUint16(m.at(a, 2), v) }
func (m *fakeMemory) PutUint32(a uintptr, v uint32)          { binary.NativeEndian.PutUint32(m.at(a, 4), v) }
func (m *fakeMemory) PutUint64(a uintptr, v uint64)          { binary.NativeEndian.PutUint64(m.at(a, 8), v) }
func (m *fakeMemory) Uint8(a uintptr) uint8                  { return m.at(a, 1)[0] }
func (m *fakeMemory) Uint16(a uintptr) uint16                { return binary.NativeEndian.Uint16(m.at(a, 2)) }
func (m *fakeMemory) Uint32(a uintptr) uint32                { return binary.NativeEndian.Uint32(m.at(a, 4)) }
func (m *fakeMemory) Uint64(a uintptr) uint64                { return binary.NativeEndian.Uint64(m.at(a, 8)) }

var _ RawMemory = (*fakeMemory)(nil)

type fakePosix struct{}

func (fakePosix) Getpid() int                    { return 1 }
func (fakePosix) Getppid() int                   { return 0 }
func (fakePosix) Getuid() int                    { return 0 }
func (fakePosix) Geteuid() int                   { return 0 }
func (fakePosix) Getgid() int                    { return 0 }
func (fakePosix) Kill(int, syscall.Signal) error { return nil }
func (fakePosix) Getcwd() (string, error)        { return "/", nil }
func (fakePosix) Umask(int) int                  { return 0o22 }
func (fakePosix) Uname() (Uname, error)          { return Uname{Sysname: "Fake"}, nil }

type fakeMemoryManager struct{}

func (fakeMemoryManager) Allocate(n int) ([]byte, error) { return make([]byte, n), nil }
func (fakeMemoryManager) Release([]byte) error           { return nil }
func (fakeMemoryManager) PageSize() int                  { return 4096 }

type fakeSignals struct{ delivery SignalDelivery }

func (fakeSignals) Signals() map[string]syscall.Signal           { return nil }
func (fakeSignals) Lookup(string) (syscall.Signal, error)        { return 0, nil }
func (fakeSignals) Register(syscall.Signal, SignalHandler) error { return nil }
func (fakeSignals) Ignore(syscall.Signal) error                  { return nil }
func (fakeSignals) Unregister(syscall.Signal) error              { return nil }
func (fakeSignals) Handler(syscall.Signal) (SignalHandler, bool) { return nil, false }
func (fakeSignals) Raise(syscall.Signal) error                   { return nil }

type fakeProcName struct{}

func (fakeProcName) CanSet() bool         { return false }
func (fakeProcName) Set(string) error     { return ErrCapabilityUnavailable }
func (fakeProcName) Get() (string, error) { return "fake", nil }

type fakeSockets struct{}

func (fakeSockets) Getaddrinfo(string, string, uintptr, uintptr) int              { return 0 }
func (fakeSockets) Freeaddrinfo(uintptr)                                          {}
func (fakeSockets) GaiStrerror(int) string                                        { return "" }
func (fakeSockets) Getnameinfo(uintptr, int, uintptr, int, uintptr, int, int) int { return 0 }
func (fakeSockets) Socket(int, int, int) int                                      { return 3 }
func (fakeSockets) Setsockopt(int, int, int, uintptr, int) int                    { return 0 }
func (fakeSockets) Getsockopt(int, int, int, uintptr, uintptr) int                { return 0 }
func (fakeSockets) Bind(int, uintptr, int) int                                    { return 0 }
func (fakeSockets) Listen(int, int) int                                           { return 0 }
func (fakeSockets) Accept(int, uintptr, uintptr) int                              { return 4 }
func (fakeSockets) Gethostname(uintptr, int) int                                  { return 0 }
func (fakeSockets) Getpeername(int, uintptr, uintptr) int                         { return 0 }
func (fakeSockets) Getsockname(int, uintptr, uintptr) int                         { return 0 }

type fakeThreads struct{}

func (fakeThreads) PthreadSelf() uintptr         { return 42 }
func (fakeThreads) PthreadKill(uintptr, int) int { return 0 }

type fakeMalloc struct{}

func (fakeMalloc) Malloc(uintptr) uintptr { return 0x100 }
func (fakeMalloc) Free(uintptr)           {}

type fakeFDSet struct{ bits [16]uint64 }

func (s *fakeFDSet) Set(fd int)              { s.bits[fd/64] |= 1 << (fd % 64) }
func (s *fakeFDSet) Clear(fd int)            { s.bits[fd/64] &^= 1 << (fd % 64) }
func (s *fakeFDSet) IsSet(fd int) bool       { return s.bits[fd/64]&(1<<(fd%64)) != 0 }
func (s *fakeFDSet) Zero()                   { s.bits = [16]uint64{} }
func (s *fakeFDSet) Pointer() unsafe.Pointer { return unsafe.Pointer(&s.bits) }
func (s *fakeFDSet) WordSize() int           { return 8 }

type recordingDelivery struct{}

func (recordingDelivery) Install(chan<- os.Signal, syscall.Signal) {}
func (recordingDelivery) Remove(chan<- os.Signal, syscall.Signal)  {}
func (recordingDelivery) Ignore(syscall.Signal)                    {}
func (recordingDelivery) Raise(syscall.Signal) error               { return nil }

var testSigAction = abi.Layout{
	Name: SigActionLayout,
	Size: 16,
	Fields: []abi.Field{
		{Name: "sa_handler", Offset: 0, Size: 8},
		{Name: "sa_mask", Offset: 8, Size: 4},
		{Name: "sa_flags", Offset: 12, Size: 4},
	},
}

// testBinding returns a Binding whose steps all succeed. mem is the raw
// memory handed out when native interrupts are on.
func testBinding(mem *fakeMemory) *Binding {
	return &Binding{
		Family:        Darwin,
		Layouts:       []abi.Layout{testSigAction},
		OverrideLayer: conftable.Static("test", conftable.Layer{"platform.socket.AF_INET6": int64(30)}),
		NewFDSet:      func() FDSet { return &fakeFDSet{} },
		NativeAccess:  func() (RawMemory, error) { return mem, nil },
		Posix:         func() (Posix, error) { return fakePosix{}, nil },
		MemoryManager: func() (MemoryManager, error) { return fakeMemoryManager{}, nil },
		SignalManager: func(d SignalDelivery) (SignalManager, error) { return fakeSignals{delivery: d}, nil },
		ProcessName:   func() (ProcessName, error) { return fakeProcName{}, nil },
		Sockets:       func() (Sockets, error) { return fakeSockets{}, nil },
		Threads:       func() (Threads, error) { return fakeThreads{}, nil },
		Clock:         func() (ClockSource, error) { return ManagedClock(), nil },
		MallocFree:    func() (MallocFree, error) { return fakeMalloc{}, nil },
	}
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuildAllCapabilitiesPresent(t *testing.T) {
	for _, native := range []bool{false, true} {
		h, err := Build(testBinding(newFakeMemory()), Startup{NativeInterrupt: native})
		if err != nil {
			t.Fatalf("Build(native=%v): %v", native, err)
		}
		if h.Family() != Darwin {
			t.Errorf("Family() = %v", h.Family())
		}
		if h.Posix() == nil || h.MemoryManager() == nil || h.SignalManager() == nil ||
			h.ProcessName() == nil || h.Sockets() == nil || h.ClockSource() == nil ||
			h.Threads() == nil || h.MallocFree() == nil || h.Configuration() == nil ||
			h.NewFDSet() == nil || h.NativeAccess() == nil {
			t.Fatalf("Build(native=%v) left a capability nil: %+v", native, h)
		}
	}
}

func TestBuildWithoutNativeInterrupt(t *testing.T) {
	b := testBinding(newFakeMemory())
	b.NativeAccess = func() (RawMemory, error) {
		t.Fatal("NativeAccess must not be called when native interrupts are disabled")
		return nil, nil
	}
	b.Threads = func() (Threads, error) {
		t.Fatal("Threads must not be bound when native interrupts are disabled")
		return nil, nil
	}
	h, err := Build(b, Startup{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := h.NativeAccess().(Unavailable); !ok {
		t.Errorf("NativeAccess() = %T, want Unavailable", h.NativeAccess())
	}
	th := h.Threads()
	if th.PthreadSelf() != 0 {
		t.Errorf("nop PthreadSelf() = %d, want 0", th.PthreadSelf())
	}
	if rc := th.PthreadKill(123, int(syscall.SIGUSR1)); rc != 0 {
		t.Errorf("nop PthreadKill() = %d, want 0", rc)
	}

	addr, err := h.CreateSigAction(0x1234)
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("CreateSigAction() error = %v, want ErrCapabilityUnavailable", err)
	}
	var capErr *CapabilityError
	if !errors.As(err, &capErr) || capErr.Op != "CreateSigAction" {
		t.Errorf("CreateSigAction() error = %#v, want *CapabilityError for CreateSigAction", err)
	}
	if addr != 0 {
		t.Errorf("CreateSigAction() addr = %#x on failure", addr)
	}
}

func TestBuildStepFailureLeavesNoHandle(t *testing.T) {
	boom := errors.New("boom")
	breakers := map[Step]func(b *Binding){
		StepLayouts:       func(b *Binding) { b.Layouts = nil },
		StepNativeAccess:  func(b *Binding) { b.NativeAccess = func() (RawMemory, error) { return nil, boom } },
		StepPosix:         func(b *Binding) { b.Posix = func() (Posix, error) { return nil, boom } },
		StepMemoryManager: func(b *Binding) { b.MemoryManager = func() (MemoryManager, error) { return nil, boom } },
		StepSignalManager: func(b *Binding) {
			b.SignalManager = func(SignalDelivery) (SignalManager, error) { return nil, boom }
		},
		StepProcessName: func(b *Binding) { b.ProcessName = func() (ProcessName, error) { return nil, boom } },
		StepSockets:     func(b *Binding) { b.Sockets = func() (Sockets, error) { return nil, boom } },
		StepThreads:     func(b *Binding) { b.Threads = func() (Threads, error) { return nil, boom } },
		StepClock:       func(b *Binding) { b.Clock = nil },
		StepMallocFree:  func(b *Binding) { b.MallocFree = func() (MallocFree, error) { return nil, nil } },
		StepConfiguration: func(b *Binding) {
			b.OverrideLayer = conftable.File("missing", "/nonexistent/override.toml")
		},
	}

	for _, step := range Steps() {
		t.Run(step.String(), func(t *testing.T) {
			b := testBinding(newFakeMemory())
			breakers[step](b)
			h, err := Build(b, Startup{NativeInterrupt: true})
			if h != nil {
				t.Fatal("Build returned a handle despite a failing step")
			}
			var se *StartupError
			if !errors.As(err, &se) {
				t.Fatalf("Build() error = %v, want *StartupError", err)
			}
			if se.Step != step {
				t.Errorf("StartupError.Step = %v, want %v", se.Step, step)
			}
			if se.Family != Darwin {
				t.Errorf("StartupError.Family = %v, want darwin", se.Family)
			}
		})
	}
}

func TestBuildNilBinding(t *testing.T) {
	h, err := Build(nil, Startup{})
	if h != nil || !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Build(nil) = %v, %v", h, err)
	}
}

func TestBuildRejectsMisplacedHandler(t *testing.T) {
	b := testBinding(newFakeMemory())
	b.Layouts = []abi.Layout{{
		Name: SigActionLayout,
		Size: 16,
		Fields: []abi.Field{
			{Name: "sa_mask", Offset: 0, Size: 8},
			{Name: "sa_handler", Offset: 8, Size: 8},
		},
	}}
	_, err := Build(b, Startup{})
	if !errors.Is(err, ErrLayoutInvalid) {
		t.Fatalf("Build() error = %v, want ErrLayoutInvalid", err)
	}
}

func TestBuildConfigurationOverrideWins(t *testing.T) {
	b := testBinding(newFakeMemory())
	h, err := Build(b, Startup{
		DefaultLayer: conftable.Static("default", conftable.Layer{"a": int64(1), "b": int64(2)}),
		OverrideLayer: conftable.Static("override", conftable.Layer{"b": int64(3), "c": int64(4)}),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cfg := h.Configuration()
	for key, want := range map[string]int64{"a": 1, "b": 3, "c": 4} {
		if got, _ := cfg.Int(key); got != want {
			t.Errorf("%s = %d, want %d", key, got, want)
		}
	}
	if cfg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cfg.Len())
	}
}

func TestBuildPassesDeliveryToSignalManager(t *testing.T) {
	h, err := Build(testBinding(newFakeMemory()), Startup{Delivery: recordingDelivery{}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := h.SignalManager().(fakeSignals).delivery.(recordingDelivery); !ok {
		t.Fatal("Startup.Delivery was not handed to the signal manager binding")
	}
}

// ---------------------------------------------------------------------------
// Struct encoding
// ---------------------------------------------------------------------------

func TestCreateSigActionRoundTrip(t *testing.T) {
	mem := newFakeMemory()
	h, err := Build(testBinding(mem), Startup{NativeInterrupt: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	avail, ok := h.NativeAccess().(Available)
	if !ok {
		t.Fatalf("NativeAccess() = %T, want Available", h.NativeAccess())
	}

	for _, handler := range []uintptr{0, 1, 0xdeadbeef, ^uintptr(0)} {
		addr, err := h.CreateSigAction(handler)
		if err != nil {
			t.Fatalf("CreateSigAction(%#x): %v", handler, err)
		}
		if got := uintptr(avail.Memory.Uint64(addr)); got != handler {
			t.Errorf("offset 0 = %#x, want %#x", got, handler)
		}
		// Remaining bytes must be zeroed, not left as allocator garbage.
		for off := uintptr(8); off < testSigAction.Size; off++ {
			if b := avail.Memory.Uint8(addr + off); b != 0 {
				t.Fatalf("byte %d = %#x, want 0", off, b)
			}
		}
	}
}

func TestCreateSigActionAllocationFailure(t *testing.T) {
	mem := newFakeMemory()
	h, err := Build(testBinding(mem), Startup{NativeInterrupt: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mem.fail = true
	if _, err := h.CreateSigAction(1); !errors.Is(err, ErrAllocation) {
		t.Fatalf("CreateSigAction() error = %v, want ErrAllocation", err)
	}
}

func TestLayoutIsImmutable(t *testing.T) {
	mem := newFakeMemory()
	b := testBinding(mem)
	h, err := Build(b, Startup{NativeInterrupt: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	l, ok := h.Layout(SigActionLayout)
	if !ok {
		t.Fatalf("Layout(%q) not found", SigActionLayout)
	}
	l.Fields[0].Offset = 8
	b.Layouts[0].Fields[0].Offset = 8
	t.Cleanup(func() { b.Layouts[0].Fields[0].Offset = 0 })

	if again, _ := h.Layout(SigActionLayout); again.Fields[0].Offset != 0 {
		t.Fatalf("stored %s offset = %d, want 0", again.Fields[0].Name, again.Fields[0].Offset)
	}
	addr, err := h.CreateSigAction(0xdeadbeef)
	if err != nil {
		t.Fatalf("CreateSigAction: %v", err)
	}
	avail := h.NativeAccess().(Available)
	if got := avail.Memory.Uint64(addr); got != 0xdeadbeef {
		t.Errorf("offset 0 = %#x, want 0xdeadbeef", got)
	}
}

func TestEncodeStruct(t *testing.T) {
	mem := newFakeMemory()
	b := testBinding(mem)
	b.Layouts = append(b.Layouts, abi.Layout{
		Name: "sockaddr_in",
		Size: 16,
		Fields: []abi.Field{
			{Name: "sin_family", Offset: 0, Size: 2},
			{Name: "sin_port", Offset: 2, Size: 2, Order: abi.Network},
			{Name: "sin_addr", Offset: 4, Size: 4, Order: abi.Network},
		},
	})
	h, err := Build(b, Startup{NativeInterrupt: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	addr, err := h.EncodeStruct("sockaddr_in", map[string]uint64{
		"sin_family": 2, "sin_port": 80, "sin_addr": 0x7f000001,
	})
	if err != nil {
		t.Fatalf("EncodeStruct: %v", err)
	}
	got := mem.at(addr, 8)
	want := make([]byte, 8)
	binary.NativeEndian.PutUint16(want[0:2], 2)
	copy(want[2:], []byte{0, 80, 127, 0, 0, 1})
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bytes = %v, want %v", got, want)
		}
	}

	if _, err := h.EncodeStruct("timeval", nil); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("EncodeStruct(timeval) error = %v, want ErrUnknownLayout", err)
	}

	before := len(mem.freed)
	if _, err := h.EncodeStruct("sockaddr_in", map[string]uint64{"sin_port": 1 << 20}); !errors.Is(err, abi.ErrFieldOverflow) {
		t.Errorf("EncodeStruct(overflow) error = %v, want ErrFieldOverflow", err)
	}
	if len(mem.freed) != before+1 {
		t.Error("EncodeStruct did not free the block after a failed write")
	}
}

// ---------------------------------------------------------------------------
// Misc
// ---------------------------------------------------------------------------

func TestStepsOrder(t *testing.T) {
	steps := Steps()
	if len(steps) != 11 {
		t.Fatalf("len(Steps()) = %d, want 11", len(steps))
	}
	for i, s := range steps {
		if int(s) != i {
			t.Errorf("Steps()[%d] = %v", i, s)
		}
		if s.String() == "unknown" {
			t.Errorf("step %d has no name", i)
		}
	}
}

func TestFamily(t *testing.T) {
	for _, f := range []Family{Linux, Darwin, FreeBSD} {
		if ParseFamily(f.String()) != f {
			t.Errorf("ParseFamily(%q) != %v", f.String(), f)
		}
	}
	if ParseFamily("plan9") != FamilyUnknown {
		t.Error("ParseFamily(plan9) should be unknown")
	}
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("plan9")
	var se *StartupError
	if !errors.As(err, &se) || !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Unsupported() = %v", err)
	}
}

func TestSignalRegistrationErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := &SignalRegistrationError{Signal: syscall.SIGKILL, Reason: "uncatchable", Err: cause}
	if !errors.Is(err, ErrSignalRegistration) || !errors.Is(err, cause) {
		t.Fatalf("errors.Is failed for %v", err)
	}
	bare := &SignalRegistrationError{Signal: 99, Reason: "unknown"}
	if !errors.Is(bare, ErrSignalRegistration) {
		t.Fatalf("errors.Is failed for %v", bare)
	}
}
