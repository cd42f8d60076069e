package platform

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/zhangyunhao116/nativeplat/abi"
	"github.com/zhangyunhao116/nativeplat/conftable"
)

// Sentinel errors returned by the platform package.
var (
	// ErrUnsupportedPlatform indicates the host OS has no Binding.
	ErrUnsupportedPlatform = errors.New("nativeplat: unsupported platform")

	// ErrLibraryLoad indicates a required shared library could not be loaded.
	ErrLibraryLoad = errors.New("nativeplat: library load failed")

	// ErrSymbolNotFound indicates a shared library lacks a required symbol.
	ErrSymbolNotFound = errors.New("nativeplat: symbol not found")

	// ErrCapabilityUnavailable indicates an operation needs a capability
	// that was left disabled at startup.
	ErrCapabilityUnavailable = errors.New("nativeplat: capability unavailable")

	// ErrAllocation indicates the C allocator returned NULL.
	ErrAllocation = errors.New("nativeplat: allocation failed")

	// ErrSignalRegistration indicates a native signal disposition could not
	// be installed.
	ErrSignalRegistration = errors.New("nativeplat: signal registration failed")

	// ErrUnknownLayout indicates no struct layout has the requested name.
	ErrUnknownLayout = errors.New("nativeplat: unknown struct layout")

	// ErrLayerLoad is returned when a configuration layer fails to load.
	ErrLayerLoad = conftable.ErrLayerLoad

	// ErrLayoutInvalid is returned when a struct layout fails validation.
	ErrLayoutInvalid = abi.ErrLayoutInvalid
)

// StartupError is the fatal error returned when a Handle cannot be built.
// No partially built Handle is ever returned alongside it.
type StartupError struct {
	// Family is the OS family being assembled.
	Family Family

	// Step is the assembly step that failed.
	Step Step

	// Err is the underlying cause.
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("nativeplat: %s platform startup failed at %s: %v", e.Family, e.Step, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// CapabilityError is returned when an operation requires a capability that
// the handle was built without. It wraps ErrCapabilityUnavailable.
type CapabilityError struct {
	// Capability names the missing capability (e.g., "native memory").
	Capability string

	// Op is the operation that needed it.
	Op string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrCapabilityUnavailable.Error(), e.Op, e.Capability)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapabilityUnavailable
}

// SignalRegistrationError is returned when a disposition for Signal cannot
// be installed. It wraps ErrSignalRegistration and, if set, Err.
type SignalRegistrationError struct {
	// Signal is the rejected signal number.
	Signal syscall.Signal

	// Reason explains the rejection.
	Reason string

	// Err is an optional underlying cause.
	Err error
}

func (e *SignalRegistrationError) Error() string {
	msg := fmt.Sprintf("%s: signal %d: %s", ErrSignalRegistration.Error(), int(e.Signal), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SignalRegistrationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSignalRegistration}
	}
	return []error{ErrSignalRegistration, e.Err}
}
