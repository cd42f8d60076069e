//go:build freebsd

package platform

// HostFamily returns the family of the operating system this binary was
// built for.
func HostFamily() Family { return FreeBSD }
