//go:build darwin && cgo

package native

/*
#cgo LDFLAGS: -framework CoreFoundation
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// Supported reports whether Open can succeed on this build.
const Supported = true

var errSynchronize = errors.New("CFPreferencesAppSynchronize failed")

// Backend reads and writes one application domain through CFPreferences.
// CF object references are uintptr-typed in cgo, so 0 means NULL.
type Backend struct {
	mu     sync.Mutex
	domain C.CFStringRef
}

// Open binds the backend to an application domain such as
// "com.example.app".
func Open(domain string) (defaults.Backend, error) {
	ref := cfString(domain)
	if ref == 0 {
		return nil, fmt.Errorf("creating CFString for domain %q", domain)
	}
	return &Backend{domain: ref}, nil
}

func (b *Backend) Get(key string) (defaults.Value, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.domain == 0 {
		return defaults.Value{}, false, errClosed
	}

	cfKey := cfString(key)
	if cfKey == 0 {
		return defaults.Value{}, false, fmt.Errorf("creating CFString for key %q", key)
	}
	defer C.CFRelease(C.CFTypeRef(cfKey))

	ref := C.CFPreferencesCopyAppValue(cfKey, b.domain)
	if ref == 0 {
		return defaults.Value{}, false, nil
	}
	defer C.CFRelease(C.CFTypeRef(ref))

	v, ok := fromCF(C.CFTypeRef(ref))
	return v, ok, nil
}

func (b *Backend) Set(key string, val defaults.Value) error {
	ref, err := toCF(val)
	if err != nil {
		return err
	}
	defer C.CFRelease(ref)
	return b.put(key, C.CFPropertyListRef(ref))
}

func (b *Backend) Delete(key string) error {
	return b.put(key, 0)
}

// put writes (or, for a zero value, removes) key and flushes the domain.
func (b *Backend) put(key string, value C.CFPropertyListRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.domain == 0 {
		return errClosed
	}

	cfKey := cfString(key)
	if cfKey == 0 {
		return fmt.Errorf("creating CFString for key %q", key)
	}
	defer C.CFRelease(C.CFTypeRef(cfKey))

	C.CFPreferencesSetAppValue(cfKey, value, b.domain)
	if C.CFPreferencesAppSynchronize(b.domain) == 0 {
		return errSynchronize
	}
	return nil
}

func (b *Backend) Keys() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.domain == 0 {
		return nil, errClosed
	}

	list := C.CFPreferencesCopyKeyList(b.domain, C.kCFPreferencesCurrentUser, C.kCFPreferencesAnyHost)
	if list == 0 {
		return []string{}, nil
	}
	defer C.CFRelease(C.CFTypeRef(list))

	n := int(C.CFArrayGetCount(list))
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		item := C.CFStringRef(uintptr(C.CFArrayGetValueAtIndex(list, C.CFIndex(i))))
		if s, ok := goString(item); ok {
			keys = append(keys, s)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.domain != 0 {
		C.CFRelease(C.CFTypeRef(b.domain))
		b.domain = 0
	}
	return nil
}

var errClosed = errors.New("native backend is closed")

// cfString returns an owned CFString; the caller releases it.
func cfString(s string) C.CFStringRef {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.CFStringCreateWithCString(C.kCFAllocatorDefault, cs, C.kCFStringEncodingUTF8)
}

// goString copies a borrowed CFString into Go memory.
func goString(ref C.CFStringRef) (string, bool) {
	if ref == 0 || C.CFGetTypeID(C.CFTypeRef(ref)) != C.CFStringGetTypeID() {
		return "", false
	}
	length := C.CFStringGetLength(ref)
	size := C.CFStringGetMaximumSizeForEncoding(length, C.kCFStringEncodingUTF8) + 1
	buf := (*C.char)(C.malloc(C.size_t(size)))
	defer C.free(unsafe.Pointer(buf))
	if C.CFStringGetCString(ref, buf, size, C.kCFStringEncodingUTF8) == 0 {
		return "", false
	}
	return C.GoString(buf), true
}

// fromCF converts a borrowed property list object. Booleans, dates, data
// and dictionaries have no accessor and read as absent, as do arrays with
// a non-string element.
func fromCF(ref C.CFTypeRef) (defaults.Value, bool) {
	switch C.CFGetTypeID(ref) {
	case C.CFNumberGetTypeID():
		num := C.CFNumberRef(ref)
		if C.CFNumberIsFloatType(num) != 0 {
			var d C.double
			C.CFNumberGetValue(num, C.kCFNumberFloat64Type, unsafe.Pointer(&d))
			return defaults.Double(float64(d)), true
		}
		var l C.int64_t
		C.CFNumberGetValue(num, C.kCFNumberSInt64Type, unsafe.Pointer(&l))
		return defaults.Long(int64(l)), true

	case C.CFStringGetTypeID():
		s, ok := goString(C.CFStringRef(ref))
		if !ok {
			return defaults.Value{}, false
		}
		return defaults.String(s), true

	case C.CFArrayGetTypeID():
		arr := C.CFArrayRef(ref)
		n := int(C.CFArrayGetCount(arr))
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			item := C.CFStringRef(uintptr(C.CFArrayGetValueAtIndex(arr, C.CFIndex(i))))
			s, ok := goString(item)
			if !ok {
				return defaults.Value{}, false
			}
			out = append(out, s)
		}
		return defaults.Value{Kind: defaults.KindStringArray, Strings: out}, true
	}
	return defaults.Value{}, false
}

// toCF builds an owned property list object for v; the caller releases it.
func toCF(v defaults.Value) (C.CFTypeRef, error) {
	switch v.Kind {
	case defaults.KindLong:
		l := C.int64_t(v.Long)
		return C.CFTypeRef(C.CFNumberCreate(C.kCFAllocatorDefault, C.kCFNumberSInt64Type, unsafe.Pointer(&l))), nil

	case defaults.KindDouble:
		d := C.double(v.Double)
		return C.CFTypeRef(C.CFNumberCreate(C.kCFAllocatorDefault, C.kCFNumberFloat64Type, unsafe.Pointer(&d))), nil

	case defaults.KindString:
		ref := cfString(v.String)
		if ref == 0 {
			return 0, fmt.Errorf("creating CFString for %q", v.String)
		}
		return C.CFTypeRef(ref), nil

	case defaults.KindStringArray:
		n := len(v.Strings)
		refs := make([]C.CFStringRef, n)
		defer func() {
			for _, r := range refs {
				if r != 0 {
					C.CFRelease(C.CFTypeRef(r))
				}
			}
		}()
		for i, s := range v.Strings {
			refs[i] = cfString(s)
			if refs[i] == 0 {
				return 0, fmt.Errorf("creating CFString for element %d", i)
			}
		}

		// CFArrayCreate copies the pointer list and retains each element.
		var values *unsafe.Pointer
		if n > 0 {
			mem := C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(uintptr(0))))
			defer C.free(mem)
			slots := unsafe.Slice((*uintptr)(mem), n)
			for i, r := range refs {
				slots[i] = uintptr(r)
			}
			values = (*unsafe.Pointer)(mem)
		}
		arr := C.CFArrayCreate(C.kCFAllocatorDefault, values, C.CFIndex(n), &C.kCFTypeArrayCallBacks)
		if arr == 0 {
			return 0, errors.New("creating CFArray")
		}
		return C.CFTypeRef(arr), nil
	}
	return 0, fmt.Errorf("%w: %d", defaults.ErrUnknownKind, int(v.Kind))
}
