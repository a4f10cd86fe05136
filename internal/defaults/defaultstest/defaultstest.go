// Package defaultstest holds a conformance suite every defaults.Backend
// implementation runs from its own tests.
package defaultstest

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// Factory returns a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) defaults.Backend

// RunBackendTests exercises the accessor contract against backends
// produced by newBackend.
func RunBackendTests(t *testing.T, newBackend Factory) {
	t.Helper()

	open := func(t *testing.T) *defaults.Store {
		t.Helper()
		b := newBackend(t)
		t.Cleanup(func() { b.Close() })
		return defaults.New(b)
	}

	t.Run("AbsentKeys", func(t *testing.T) {
		s := open(t)
		if _, ok, err := s.GetLong("never"); err != nil || ok {
			t.Errorf("GetLong = ok %v, err %v; want absent", ok, err)
		}
		if _, ok, err := s.GetDouble("never"); err != nil || ok {
			t.Errorf("GetDouble = ok %v, err %v; want absent", ok, err)
		}
		if _, ok, err := s.GetString("never"); err != nil || ok {
			t.Errorf("GetString = ok %v, err %v; want absent", ok, err)
		}
		if got, ok, err := s.GetStringArray("never"); err != nil || ok || got != nil {
			t.Errorf("GetStringArray = %v, ok %v, err %v; want nil, absent", got, ok, err)
		}
	})

	t.Run("LongRoundTrip", func(t *testing.T) {
		s := open(t)
		for _, want := range []int64{0, 42, -1, math.MaxInt64, math.MinInt64} {
			if err := s.SetLong("i64", want); err != nil {
				t.Fatalf("SetLong(%d): %v", want, err)
			}
			got, ok, err := s.GetLong("i64")
			if err != nil || !ok || got != want {
				t.Errorf("GetLong = %d, %v, %v; want %d", got, ok, err, want)
			}
		}
	})

	t.Run("DoubleRoundTrip", func(t *testing.T) {
		s := open(t)
		for _, want := range []float64{0, 123.456, -1e-300, math.MaxFloat64, math.Inf(1), math.Inf(-1)} {
			if err := s.SetDouble("f64", want); err != nil {
				t.Fatalf("SetDouble(%v): %v", want, err)
			}
			got, ok, err := s.GetDouble("f64")
			if err != nil || !ok || got != want {
				t.Errorf("GetDouble = %v, %v, %v; want %v", got, ok, err, want)
			}
		}

		if err := s.SetDouble("nan", math.NaN()); err != nil {
			t.Fatalf("SetDouble(NaN): %v", err)
		}
		got, ok, err := s.GetDouble("nan")
		if err != nil || !ok || !math.IsNaN(got) {
			t.Errorf("GetDouble(nan) = %v, %v, %v; want NaN", got, ok, err)
		}
	})

	t.Run("StringRoundTrip", func(t *testing.T) {
		s := open(t)
		for _, want := range []string{"lorem ipsum", "", "héllo, 世界", "line1\nline2"} {
			if err := s.SetString("string", want); err != nil {
				t.Fatalf("SetString(%q): %v", want, err)
			}
			got, ok, err := s.GetString("string")
			if err != nil || !ok || got != want {
				t.Errorf("GetString = %q, %v, %v; want %q", got, ok, err, want)
			}
		}
	})

	t.Run("StringArrayRoundTrip", func(t *testing.T) {
		s := open(t)
		want := []string{"one", "two", "three", "", "two"}
		if err := s.SetStringArray("string-array", want); err != nil {
			t.Fatalf("SetStringArray: %v", err)
		}
		got, ok, err := s.GetStringArray("string-array")
		if err != nil || !ok {
			t.Fatalf("GetStringArray = ok %v, err %v", ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("GetStringArray mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("EmptyArrayIsNotAbsent", func(t *testing.T) {
		s := open(t)
		if err := s.SetStringArray("empty", nil); err != nil {
			t.Fatalf("SetStringArray(nil): %v", err)
		}
		got, ok, err := s.GetStringArray("empty")
		if err != nil || !ok {
			t.Fatalf("GetStringArray = ok %v, err %v; want present", ok, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("GetStringArray = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := open(t)
		if err := s.SetStringArray("k", []string{"a", "b", "c"}); err != nil {
			t.Fatal(err)
		}
		if err := s.SetStringArray("k", []string{"z"}); err != nil {
			t.Fatal(err)
		}
		got, _, err := s.GetStringArray("k")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"z"}, got); diff != "" {
			t.Errorf("overwritten array mismatch (-want +got):\n%s", diff)
		}

		if err := s.SetLong("n", 1); err != nil {
			t.Fatal(err)
		}
		if err := s.SetLong("n", 2); err != nil {
			t.Fatal(err)
		}
		if got, _, _ := s.GetLong("n"); got != 2 {
			t.Errorf("GetLong = %d, want 2", got)
		}
	})

	t.Run("CrossTypeOverwrite", func(t *testing.T) {
		s := open(t)
		if err := s.SetLong("k", 7); err != nil {
			t.Fatal(err)
		}
		if err := s.SetString("k", "seven"); err != nil {
			t.Fatal(err)
		}
		if _, ok, err := s.GetLong("k"); err != nil || ok {
			t.Errorf("GetLong after string overwrite = ok %v, err %v; want absent", ok, err)
		}
		if _, ok, err := s.GetDouble("k"); err != nil || ok {
			t.Errorf("GetDouble after string overwrite = ok %v, err %v; want absent", ok, err)
		}
		if _, ok, err := s.GetStringArray("k"); err != nil || ok {
			t.Errorf("GetStringArray after string overwrite = ok %v, err %v; want absent", ok, err)
		}
		if got, ok, _ := s.GetString("k"); !ok || got != "seven" {
			t.Errorf("GetString = %q, %v; want seven", got, ok)
		}
	})

	t.Run("LongReadsAsDouble", func(t *testing.T) {
		s := open(t)
		if err := s.SetLong("k", 3); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.GetDouble("k")
		if err != nil || !ok || got != 3 {
			t.Errorf("GetDouble = %v, %v, %v; want 3", got, ok, err)
		}
		if err := s.SetDouble("d", 3.5); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s.GetLong("d"); ok {
			t.Error("GetLong on a double: want absent")
		}
	})

	t.Run("DeleteAndKeys", func(t *testing.T) {
		s := open(t)
		for _, k := range []string{"b", "a", "c"} {
			if err := s.SetString(k, k); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Delete("b"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := s.Delete("missing"); err != nil {
			t.Errorf("Delete(missing) = %v, want nil", err)
		}
		keys, err := s.Keys()
		if err != nil {
			t.Fatalf("Keys: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "c"}, keys); diff != "" {
			t.Errorf("Keys mismatch (-want +got):\n%s", diff)
		}
		if _, ok, _ := s.GetString("b"); ok {
			t.Error("deleted key still present")
		}
	})

	t.Run("CallerKeepsOwnership", func(t *testing.T) {
		s := open(t)
		in := []string{"one", "two"}
		if err := s.SetStringArray("k", in); err != nil {
			t.Fatal(err)
		}
		in[0] = "mutated"

		out, _, err := s.GetStringArray("k")
		if err != nil {
			t.Fatal(err)
		}
		out[1] = "mutated too"

		again, _, err := s.GetStringArray("k")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"one", "two"}, again); diff != "" {
			t.Errorf("stored array changed through caller slices (-want +got):\n%s", diff)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		s := open(t)
		if err := s.SetLong("bad\x00key", 1); !errors.Is(err, defaults.ErrInvalidKey) {
			t.Errorf("SetLong(NUL key) = %v, want ErrInvalidKey", err)
		}
		if _, _, err := s.GetString(""); !errors.Is(err, defaults.ErrInvalidKey) {
			t.Errorf("GetString(empty key) = %v, want ErrInvalidKey", err)
		}
		if err := s.SetString("k", "nul\x00inside"); !errors.Is(err, defaults.ErrInvalidString) {
			t.Errorf("SetString(NUL value) = %v, want ErrInvalidString", err)
		}
		if err := s.SetStringArray("k", []string{"ok", "\xff"}); !errors.Is(err, defaults.ErrInvalidString) {
			t.Errorf("SetStringArray(invalid UTF-8) = %v, want ErrInvalidString", err)
		}
		if _, ok, _ := s.Lookup("k"); ok {
			t.Error("rejected writes must not reach the backend")
		}
	})
}
