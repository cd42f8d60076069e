package platform

import "fmt"

// Unsupported returns the startup error for an operating system without a
// Binding.
func Unsupported(goos string) error {
	return &StartupError{
		Family: FamilyUnknown,
		Step:   StepLayouts,
		Err:    fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos),
	}
}
