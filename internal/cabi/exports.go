package cabi

/*
#include <stdlib.h>
#include "types.h"
*/
import "C"

import (
	"log/slog"
	"unsafe"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// open resolves the store and the Go form of key. ok is false when the key
// is NULL or no store could be opened; both are already logged.
func open(op string, key *C.char) (*defaults.Store, *slog.Logger, string, bool) {
	s, logger := current()
	if key == nil {
		logger.Warn("Ignoring user defaults call with NULL key", "op", op)
		return nil, logger, "", false
	}
	if s == nil {
		return nil, logger, "", false
	}
	return s, logger, goString(key), true
}

//export user_defaults_get_long
func user_defaults_get_long(key *C.char) C.user_defaults_long {
	var out C.user_defaults_long
	s, logger, k, ok := open("get_long", key)
	if !ok {
		return out
	}
	v, ok, err := s.GetLong(k)
	if err != nil {
		logger.Error("Failed to read user defaults key", "key", k, "error", err)
		return out
	}
	if ok {
		out.present = true
		out.value = C.long(v)
	}
	return out
}

//export user_defaults_set_long
func user_defaults_set_long(key *C.char, value C.long) {
	s, logger, k, ok := open("set_long", key)
	if !ok {
		return
	}
	if err := s.SetLong(k, int64(value)); err != nil {
		logger.Error("Failed to set user defaults key", "key", k, "error", err)
	}
}

//export user_defaults_get_double
func user_defaults_get_double(key *C.char) C.user_defaults_double {
	var out C.user_defaults_double
	s, logger, k, ok := open("get_double", key)
	if !ok {
		return out
	}
	v, ok, err := s.GetDouble(k)
	if err != nil {
		logger.Error("Failed to read user defaults key", "key", k, "error", err)
		return out
	}
	if ok {
		out.present = true
		out.value = C.double(v)
	}
	return out
}

//export user_defaults_set_double
func user_defaults_set_double(key *C.char, value C.double) {
	s, logger, k, ok := open("set_double", key)
	if !ok {
		return
	}
	if err := s.SetDouble(k, float64(value)); err != nil {
		logger.Error("Failed to set user defaults key", "key", k, "error", err)
	}
}

//export user_defaults_get_string
func user_defaults_get_string(key *C.char) *C.char {
	s, logger, k, ok := open("get_string", key)
	if !ok {
		return nil
	}
	v, ok, err := s.GetString(k)
	if err != nil {
		logger.Error("Failed to read user defaults key", "key", k, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	p := newCString(v)
	track(unsafe.Pointer(p), allocString)
	return p
}

//export user_defaults_free_string
func user_defaults_free_string(value *C.char) {
	if value == nil {
		return
	}
	freeTracked(unsafe.Pointer(value), allocString)
}

//export user_defaults_set_string
func user_defaults_set_string(key *C.char, value *C.char) {
	s, logger, k, ok := open("set_string", key)
	if !ok {
		return
	}
	if value == nil {
		logger.Warn("Ignoring set of NULL string", "key", k)
		return
	}
	if err := s.SetString(k, goString(value)); err != nil {
		logger.Error("Failed to set user defaults key", "key", k, "error", err)
	}
}

//export user_defaults_get_string_array
func user_defaults_get_string_array(key *C.char) *C.user_defaults_string_array {
	s, logger, k, ok := open("get_string_array", key)
	if !ok {
		return nil
	}
	v, ok, err := s.GetStringArray(k)
	if err != nil {
		logger.Error("Failed to read user defaults key", "key", k, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	arr := newCStringArray(v)
	track(unsafe.Pointer(arr), allocStringArray)
	return arr
}

//export user_defaults_free_string_array
func user_defaults_free_string_array(value *C.user_defaults_string_array) {
	if value == nil {
		return
	}
	freeTracked(unsafe.Pointer(value), allocStringArray)
}

//export user_defaults_set_string_array
func user_defaults_set_string_array(key *C.char, data C.user_defaults_string_array) {
	s, logger, k, ok := open("set_string_array", key)
	if !ok {
		return
	}
	if err := s.SetStringArray(k, goStrings(data)); err != nil {
		logger.Error("Failed to set user defaults key", "key", k, "error", err)
	}
}

// freeTracked retires p through the ledger. The memory itself is returned
// to the allocator when it leaves quarantine.
func freeTracked(p unsafe.Pointer, kind allocKind) {
	status, held, evicted := release(p, kind)
	switch status {
	case freeTwice:
		logger().Warn("Ignoring free of pointer already freed", "kind", held.String())
	case freeForeign:
		logger().Warn("Ignoring free of pointer not owned as a "+kind.String(), "held_as", held.String())
	}
	for _, a := range evicted {
		a.free()
	}
}
