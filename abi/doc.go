// Package abi describes native struct layouts declaratively and encodes
// their fields into raw memory.
//
// A Layout names every field of a C structure together with its byte offset
// and width for one OS family and architecture. Layouts are validated once,
// at startup or in tests, and the Encoder then writes or reads fields by name
// instead of through hand-computed offsets:
//
//	enc, err := abi.NewEncoder(mem, layout)
//	if err != nil {
//	    return err
//	}
//	err = enc.Put(addr, "sa_handler", uint64(handler))
//
// Nothing in this package can detect a layout that disagrees with the host
// C library; such a mismatch silently corrupts memory. Per-OS tests pin every
// shipped layout against the documented ABI.
package abi
