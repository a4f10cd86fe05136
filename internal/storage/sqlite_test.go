package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/userdefaults/internal/defaults"
	"github.com/kalambet/userdefaults/internal/defaults/defaultstest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if diff := cmp.Diff([]int{1}, versions); diff != "" {
		t.Errorf("applied migrations mismatch (-want +got):\n%s", diff)
	}
}

func TestDomainBackendConformance(t *testing.T) {
	defaultstest.RunBackendTests(t, func(t *testing.T) defaults.Backend {
		b, err := OpenBackend(":memory:", "com.example.test")
		if err != nil {
			t.Fatalf("OpenBackend: %v", err)
		}
		return b
	})
}

func TestPreferenceRoundTrip(t *testing.T) {
	s := openTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	if err := s.SetPreference("com.example", "tags", defaults.StringArray([]string{"a", "b"})); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}

	p, err := s.GetPreference("com.example", "tags")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if p.Domain != "com.example" || p.Key != "tags" {
		t.Errorf("got domain=%q key=%q", p.Domain, p.Key)
	}
	if !p.Value.Equal(defaults.StringArray([]string{"a", "b"})) {
		t.Errorf("Value = %+v", p.Value)
	}
	if p.UpdatedAt.Before(before) {
		t.Errorf("UpdatedAt = %v, want after %v", p.UpdatedAt, before)
	}

	var kind string
	if err := s.db.QueryRow(`SELECT kind FROM preferences WHERE domain = ? AND key = ?`, "com.example", "tags").Scan(&kind); err != nil {
		t.Fatal(err)
	}
	if kind != "string-array" {
		t.Errorf("kind column = %q, want string-array", kind)
	}
}

func TestGetPreferenceNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetPreference("com.example", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPreference(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDomainsAreIsolated(t *testing.T) {
	s := openTestStore(t)
	a, b := s.Domain("com.example.a"), s.Domain("com.example.b")

	if err := a.Set("k", defaults.Long(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("k", defaults.String("b")); err != nil {
		t.Fatal(err)
	}

	v, ok, err := a.Get("k")
	if err != nil || !ok || v.Kind != defaults.KindLong || v.Long != 1 {
		t.Errorf("a.Get = %+v, %v, %v", v, ok, err)
	}

	if err := a.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get("k"); !ok {
		t.Error("deleting from one domain removed the key from another")
	}

	domains, err := s.ListDomains()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"com.example.b"}, domains); diff != "" {
		t.Errorf("ListDomains mismatch (-want +got):\n%s", diff)
	}

	// Closing a non-owning domain view keeps the store usable.
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ListPreferenceKeys("com.example.b"); err != nil {
		t.Errorf("store unusable after closing a domain view: %v", err)
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()

	b1, err := OpenBackend(dir, "com.example")
	if err != nil {
		t.Fatal(err)
	}
	if err := defaults.New(b1).SetDouble("f64", 123.456); err != nil {
		t.Fatal(err)
	}
	if err := b1.Close(); err != nil {
		t.Fatal(err)
	}

	b2, err := OpenBackend(dir, "com.example")
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()
	got, ok, err := defaults.New(b2).GetDouble("f64")
	if err != nil || !ok || got != 123.456 {
		t.Errorf("GetDouble after reopen = %v, %v, %v", got, ok, err)
	}
}

func TestDropDomain(t *testing.T) {
	b, err := OpenBackend(":memory:", "com.example.scratch")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	other := b.store.Domain("com.example.keep")

	if err := b.Set("k", defaults.Long(1)); err != nil {
		t.Fatal(err)
	}
	if err := other.Set("k", defaults.Long(2)); err != nil {
		t.Fatal(err)
	}

	s := defaults.New(b)
	domains, err := s.Domains()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"com.example.keep", "com.example.scratch"}, domains); diff != "" {
		t.Errorf("Domains (-want +got):\n%s", diff)
	}

	if err := s.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	domains, err = s.Domains()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"com.example.keep"}, domains); diff != "" {
		t.Errorf("Domains after Drop (-want +got):\n%s", diff)
	}
}
