package cabi

/*
#include <stdlib.h>
#include "types.h"
*/
import "C"

import (
	"sync"
	"unsafe"
)

type allocKind int

const (
	allocString allocKind = iota + 1
	allocStringArray
)

func (k allocKind) String() string {
	switch k {
	case allocString:
		return "string"
	case allocStringArray:
		return "string array"
	}
	return "unknown"
}

// quarantineSize bounds how many freed allocations are held back from the
// C allocator. While an address sits in quarantine malloc cannot hand it
// out again, so a second free of it is recognised. Once evicted, a stale
// free of a reused address is indistinguishable from a valid one.
const quarantineSize = 256

type allocation struct {
	p    unsafe.Pointer
	kind allocKind
}

type freeStatus int

const (
	freeOK freeStatus = iota
	freeTwice
	freeForeign
)

// ledger records every pointer handed to C so that frees can be checked.
// live holds outstanding allocations; quarantine holds the most recently
// freed ones in FIFO order, still allocated.
var ledger = struct {
	sync.Mutex
	live        map[unsafe.Pointer]allocKind
	quarantined map[unsafe.Pointer]allocKind
	quarantine  []allocation
}{
	live:        make(map[unsafe.Pointer]allocKind),
	quarantined: make(map[unsafe.Pointer]allocKind),
}

func track(p unsafe.Pointer, kind allocKind) {
	ledger.Lock()
	ledger.live[p] = kind
	ledger.Unlock()
}

// release moves p from live into quarantine when it was handed out as
// kind. held is what the ledger knows p as, zero when unknown. evicted
// lists allocations pushed out of quarantine; the caller frees them.
func release(p unsafe.Pointer, kind allocKind) (status freeStatus, held allocKind, evicted []allocation) {
	ledger.Lock()
	defer ledger.Unlock()
	if k, ok := ledger.quarantined[p]; ok {
		return freeTwice, k, nil
	}
	got, ok := ledger.live[p]
	if !ok || got != kind {
		return freeForeign, got, nil
	}
	delete(ledger.live, p)
	ledger.quarantined[p] = kind
	ledger.quarantine = append(ledger.quarantine, allocation{p: p, kind: kind})
	for len(ledger.quarantine) > quarantineSize {
		old := ledger.quarantine[0]
		ledger.quarantine = ledger.quarantine[1:]
		delete(ledger.quarantined, old.p)
		evicted = append(evicted, old)
	}
	return freeOK, got, evicted
}

func (a allocation) free() {
	switch a.kind {
	case allocString:
		freeCString((*C.char)(a.p))
	case allocStringArray:
		freeCStringArray((*C.user_defaults_string_array)(a.p))
	}
}

// LiveAllocations reports how many returned strings and arrays have not
// been freed yet.
func LiveAllocations() int {
	ledger.Lock()
	defer ledger.Unlock()
	return len(ledger.live)
}

func newCString(s string) *C.char {
	return C.CString(s)
}

func freeCString(p *C.char) {
	C.free(unsafe.Pointer(p))
}

func goString(p *C.char) string {
	return C.GoString(p)
}

// newCStringArray builds a C array in one malloc for the struct, one for
// the pointer list and one per element. An empty array has a NULL list.
func newCStringArray(ss []string) *C.user_defaults_string_array {
	arr := (*C.user_defaults_string_array)(C.malloc(C.sizeof_user_defaults_string_array))
	arr.count = C.size_t(len(ss))
	arr.data = nil
	if len(ss) == 0 {
		return arr
	}
	mem := C.malloc(C.size_t(len(ss)) * C.size_t(unsafe.Sizeof((*C.char)(nil))))
	slots := unsafe.Slice((**C.char)(mem), len(ss))
	for i, s := range ss {
		slots[i] = C.CString(s)
	}
	arr.data = (**C.char)(mem)
	return arr
}

func freeCStringArray(arr *C.user_defaults_string_array) {
	if arr.data != nil {
		for _, p := range unsafe.Slice(arr.data, int(arr.count)) {
			C.free(unsafe.Pointer(p))
		}
		C.free(unsafe.Pointer(arr.data))
	}
	C.free(unsafe.Pointer(arr))
}

// goStrings copies a C array into Go memory. NULL elements become "" and
// a NULL list is an empty array whatever the count says.
func goStrings(arr C.user_defaults_string_array) []string {
	if arr.data == nil {
		return []string{}
	}
	out := make([]string, int(arr.count))
	for i, p := range unsafe.Slice(arr.data, int(arr.count)) {
		if p != nil {
			out[i] = C.GoString(p)
		}
	}
	return out
}
