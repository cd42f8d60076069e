// Package native loads shared libraries with purego and binds the native
// function tables (sockets, threads, malloc/free) and the raw memory
// accessor used by every unix platform variant. No cgo is involved.
package native
