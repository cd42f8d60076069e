package nativeplat

import (
	"errors"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// Sentinel errors returned by the nativeplat package.
var (
	// ErrConfigInvalid indicates the provided configuration failed validation.
	ErrConfigInvalid = errors.New("nativeplat: invalid configuration")

	// ErrAlreadyInitialized indicates Init already recorded a process handle.
	ErrAlreadyInitialized = errors.New("nativeplat: already initialized")
)

// Errors re-exported from the platform package so callers need only one
// import for errors.Is checks.
var (
	ErrUnsupportedPlatform   = platform.ErrUnsupportedPlatform
	ErrLibraryLoad           = platform.ErrLibraryLoad
	ErrSymbolNotFound        = platform.ErrSymbolNotFound
	ErrCapabilityUnavailable = platform.ErrCapabilityUnavailable
	ErrAllocation            = platform.ErrAllocation
	ErrSignalRegistration    = platform.ErrSignalRegistration
	ErrUnknownLayout         = platform.ErrUnknownLayout
	ErrLayerLoad             = platform.ErrLayerLoad
	ErrLayoutInvalid         = platform.ErrLayoutInvalid
)

// StartupError is the fatal error returned when no handle can be built.
// It is an alias for platform.StartupError.
type StartupError = platform.StartupError

// CapabilityError reports an operation that needs a disabled capability.
// It is an alias for platform.CapabilityError.
type CapabilityError = platform.CapabilityError

// SignalRegistrationError reports a rejected signal operation.
// It is an alias for platform.SignalRegistrationError.
type SignalRegistrationError = platform.SignalRegistrationError
