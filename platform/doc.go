// Package platform defines the native capability contract exposed to the
// runtime and assembles one Handle per OS family.
//
// Most users should use the top-level nativeplat package, which detects the
// host OS and constructs the matching variant. Import this package directly
// to type-switch on MemoryAccess, to inspect errors, or to implement a
// Binding for a new OS family.
package platform
