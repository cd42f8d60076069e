// Package nativeplat gives a managed-language runtime embedded in a Go
// process one capability interface over the host's native facilities:
// signals, clocks, sockets, threads, the C heap, process naming and a
// layered configuration table.
//
// Each supported OS family (Linux, macOS, FreeBSD) supplies a binding that
// names its shared libraries, describes its native struct layouts and picks
// its clock. The binding is assembled in a fixed sequence of steps; if any
// step fails, no handle is returned. Raw memory access and native thread
// control are only bound when native interrupts are enabled.
//
// Basic usage:
//
//	cfg := nativeplat.DefaultConfig()
//	h, err := nativeplat.Init(cfg, nativeplat.WithNativeInterrupt(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	addr, err := h.CreateSigAction(handlerAddr)
package nativeplat
