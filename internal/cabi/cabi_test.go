//go:build cgo

package cabi

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// install points the exported functions at a fresh memory store and
// captures boundary logs.
func install(t *testing.T) (*defaults.Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s := defaults.New(defaults.NewMemoryBackend())
	prev := Install(s)
	base := LiveAllocations()
	t.Cleanup(func() {
		Install(prev)
		SetLogger(nil)
		if n := LiveAllocations(); n != base {
			t.Errorf("LiveAllocations = %d after test, want %d", n, base)
		}
	})
	return s, &buf
}

func TestLongRoundTrip(t *testing.T) {
	install(t)
	key := newCString("count")
	defer freeCString(key)

	if got := user_defaults_get_long(key); got.present {
		t.Fatalf("absent key reported present with %d", int64(got.value))
	}
	user_defaults_set_long(key, 42)
	got := user_defaults_get_long(key)
	if !bool(got.present) || int64(got.value) != 42 {
		t.Errorf("get_long = {%v %d}, want {true 42}", bool(got.present), int64(got.value))
	}

	// A long reads as a double, not the other way round.
	if d := user_defaults_get_double(key); !bool(d.present) || float64(d.value) != 42 {
		t.Errorf("get_double on long = {%v %v}", bool(d.present), float64(d.value))
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	s, _ := install(t)
	key := newCString("ratio")
	defer freeCString(key)

	user_defaults_set_double(key, 3.25)
	if got := user_defaults_get_double(key); !bool(got.present) || float64(got.value) != 3.25 {
		t.Errorf("get_double = {%v %v}", bool(got.present), float64(got.value))
	}
	if got := user_defaults_get_long(key); got.present {
		t.Error("double read as long")
	}

	if err := s.SetDouble("ratio", math.Inf(-1)); err != nil {
		t.Fatal(err)
	}
	if got := user_defaults_get_double(key); !bool(got.present) || !math.IsInf(float64(got.value), -1) {
		t.Errorf("get_double(-Inf) = {%v %v}", bool(got.present), float64(got.value))
	}
}

func TestStringRoundTripAndFree(t *testing.T) {
	install(t)
	key := newCString("name")
	defer freeCString(key)

	if p := user_defaults_get_string(key); p != nil {
		t.Fatalf("absent key returned %q", goString(p))
	}

	val := newCString("héllo")
	user_defaults_set_string(key, val)
	freeCString(val)

	p := user_defaults_get_string(key)
	if p == nil {
		t.Fatal("get_string returned NULL")
	}
	if got := goString(p); got != "héllo" {
		t.Errorf("get_string = %q", got)
	}
	if LiveAllocations() == 0 {
		t.Error("returned string not tracked")
	}
	user_defaults_free_string(p)

	// Each get returns a distinct allocation.
	a, b := user_defaults_get_string(key), user_defaults_get_string(key)
	if a == b {
		t.Error("two gets returned the same pointer")
	}
	user_defaults_free_string(a)
	user_defaults_free_string(b)
}

func TestEmptyStringIsPresent(t *testing.T) {
	install(t)
	key := newCString("empty")
	defer freeCString(key)
	val := newCString("")
	defer freeCString(val)

	user_defaults_set_string(key, val)
	p := user_defaults_get_string(key)
	if p == nil {
		t.Fatal("empty string read as absent")
	}
	defer user_defaults_free_string(p)
	if got := goString(p); got != "" {
		t.Errorf("get_string = %q, want empty", got)
	}
}

func TestStringArrayRoundTrip(t *testing.T) {
	s, _ := install(t)
	key := newCString("list")
	defer freeCString(key)

	in := newCStringArray([]string{"one", "two", "three"})
	user_defaults_set_string_array(key, *in)
	freeCStringArray(in)

	arr := user_defaults_get_string_array(key)
	if arr == nil {
		t.Fatal("get_string_array returned NULL")
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, goStrings(*arr)); diff != "" {
		t.Errorf("array mismatch (-want +got):\n%s", diff)
	}
	user_defaults_free_string_array(arr)

	// Replacement, not merge.
	in = newCStringArray([]string{"only"})
	user_defaults_set_string_array(key, *in)
	freeCStringArray(in)
	got, ok, err := s.GetStringArray("list")
	if err != nil || !ok {
		t.Fatalf("GetStringArray = %v, %v", ok, err)
	}
	if diff := cmp.Diff([]string{"only"}, got); diff != "" {
		t.Errorf("array after replace (-want +got):\n%s", diff)
	}
}

func TestEmptyStringArray(t *testing.T) {
	install(t)
	key := newCString("none")
	defer freeCString(key)

	in := newCStringArray(nil)
	user_defaults_set_string_array(key, *in)
	freeCStringArray(in)

	arr := user_defaults_get_string_array(key)
	if arr == nil {
		t.Fatal("empty array read as absent")
	}
	if arr.count != 0 || arr.data != nil {
		t.Errorf("empty array = {count %d, data %p}", arr.count, arr.data)
	}
	user_defaults_free_string_array(arr)
}

func TestKindMismatchIsAbsent(t *testing.T) {
	install(t)
	key := newCString("k")
	defer freeCString(key)

	user_defaults_set_long(key, 7)
	if p := user_defaults_get_string(key); p != nil {
		user_defaults_free_string(p)
		t.Error("long read as string")
	}
	if arr := user_defaults_get_string_array(key); arr != nil {
		user_defaults_free_string_array(arr)
		t.Error("long read as string array")
	}

	val := newCString("text")
	user_defaults_set_string(key, val)
	freeCString(val)
	if got := user_defaults_get_long(key); got.present {
		t.Error("string read as long")
	}
	if got := user_defaults_get_double(key); got.present {
		t.Error("string read as double")
	}
}

func TestNullKey(t *testing.T) {
	s, logs := install(t)

	if got := user_defaults_get_long(nil); got.present {
		t.Error("NULL key reported present")
	}
	if p := user_defaults_get_string(nil); p != nil {
		t.Error("NULL key returned a string")
	}
	user_defaults_set_long(nil, 1)

	keys, err := s.Keys()
	if err != nil || len(keys) != 0 {
		t.Errorf("Keys = %v, %v; want none", keys, err)
	}
	if !strings.Contains(logs.String(), "NULL key") {
		t.Errorf("NULL key not logged: %s", logs)
	}
}

func TestFreeNullIsNoop(t *testing.T) {
	_, logs := install(t)
	user_defaults_free_string(nil)
	user_defaults_free_string_array(nil)
	if logs.Len() != 0 {
		t.Errorf("freeing NULL logged: %s", logs)
	}
}

func TestInvalidFreesAreIgnored(t *testing.T) {
	_, logs := install(t)
	key := newCString("k")
	defer freeCString(key)
	val := newCString("v")
	user_defaults_set_string(key, val)

	// Not allocated by a get.
	user_defaults_free_string(val)
	freeCString(val)

	// Double free.
	p := user_defaults_get_string(key)
	user_defaults_free_string(p)
	user_defaults_free_string(p)

	// Array not allocated by a get.
	in := newCStringArray([]string{"x"})
	user_defaults_free_string_array(in)
	freeCStringArray(in)

	if n := strings.Count(logs.String(), "Ignoring free"); n != 3 {
		t.Errorf("logged %d ignored frees, want 3:\n%s", n, logs)
	}
}

func TestDoubleFreeDoesNotReleaseReusedAddress(t *testing.T) {
	_, logs := install(t)
	key := newCString("k")
	defer freeCString(key)
	val := newCString("v")
	user_defaults_set_string(key, val)
	freeCString(val)

	p := user_defaults_get_string(key)
	user_defaults_free_string(p)

	// p stays allocated while quarantined, so the next get cannot reuse it.
	q := user_defaults_get_string(key)
	if q == p {
		t.Fatal("freed string address handed out again while quarantined")
	}
	live := LiveAllocations()

	user_defaults_free_string(p)
	if got := LiveAllocations(); got != live {
		t.Errorf("LiveAllocations = %d after stale free, want %d", got, live)
	}
	if got := goString(q); got != "v" {
		t.Errorf("live string = %q after stale free", got)
	}
	if !strings.Contains(logs.String(), "already freed") {
		t.Errorf("double free not logged:\n%s", logs)
	}
	user_defaults_free_string(q)
}

func TestQuarantineIsBounded(t *testing.T) {
	install(t)
	key := newCString("list")
	defer freeCString(key)
	in := newCStringArray([]string{"a"})
	user_defaults_set_string_array(key, *in)
	freeCStringArray(in)

	for i := 0; i < quarantineSize+10; i++ {
		user_defaults_free_string_array(user_defaults_get_string_array(key))
	}

	ledger.Lock()
	n, m := len(ledger.quarantine), len(ledger.quarantined)
	ledger.Unlock()
	if n != quarantineSize || m != quarantineSize {
		t.Errorf("quarantine holds %d (index %d), want %d", n, m, quarantineSize)
	}
}
