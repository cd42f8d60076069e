//go:build linux || darwin || freebsd

package native

import (
	"errors"
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// Function variables wrapping purego, overridden in tests.
var (
	dlopenFn       = purego.Dlopen
	dlsymFn        = purego.Dlsym
	registerFuncFn = purego.RegisterFunc
)

// Library is a loaded shared library.
type Library struct {
	name   string
	handle uintptr
}

// Symbol pairs a C symbol name with a pointer to the Go function variable
// that should call it.
type Symbol struct {
	Name string
	Fn   any
}

// Open loads the first of candidates that dlopen accepts. Later candidates
// are fallbacks (e.g., an unversioned soname).
func Open(candidates ...string) (*Library, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no library names given", platform.ErrLibraryLoad)
	}
	var errs []error
	for _, name := range candidates {
		h, err := dlopenFn(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return &Library{name: name, handle: h}, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %v: %w", platform.ErrLibraryLoad, candidates, errors.Join(errs...))
}

// Name returns the name the library was opened with.
func (l *Library) Name() string { return l.name }

// Handle returns the dlopen handle.
func (l *Library) Handle() uintptr { return l.handle }

// Lookup resolves symbol to an address.
func (l *Library) Lookup(symbol string) (uintptr, error) {
	addr, err := dlsymFn(l.handle, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s in %s: %w", platform.ErrSymbolNotFound, symbol, l.name, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: %s in %s", platform.ErrSymbolNotFound, symbol, l.name)
	}
	return addr, nil
}

// Bind resolves every symbol in libs, trying each library in order, and
// points its Fn at the native function. Nothing is bound unless every
// symbol resolves.
func Bind(libs []*Library, symbols []Symbol) error {
	addrs := make([]uintptr, len(symbols))
	for i, sym := range symbols {
		var errs []error
		for _, lib := range libs {
			addr, err := lib.Lookup(sym.Name)
			if err == nil {
				addrs[i] = addr
				errs = nil
				break
			}
			errs = append(errs, err)
		}
		if addrs[i] == 0 {
			if len(errs) == 0 {
				return fmt.Errorf("%w: %s: no libraries to search", platform.ErrSymbolNotFound, sym.Name)
			}
			return errors.Join(errs...)
		}
	}
	for i, sym := range symbols {
		registerFuncFn(sym.Fn, addrs[i])
	}
	return nil
}
