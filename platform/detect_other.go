//go:build !darwin && !linux && !freebsd

package platform

// HostFamily returns FamilyUnknown on operating systems without a Binding.
func HostFamily() Family { return FamilyUnknown }
