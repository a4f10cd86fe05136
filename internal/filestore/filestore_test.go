package filestore

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/kalambet/userdefaults/internal/defaults"
	"github.com/kalambet/userdefaults/internal/defaults/defaultstest"
)

func TestBackendConformance(t *testing.T) {
	defaultstest.RunBackendTests(t, func(t *testing.T) defaults.Backend {
		b, err := OpenFS(afero.NewMemMapFs(), "/prefs/com.example.test.json")
		if err != nil {
			t.Fatalf("OpenFS: %v", err)
		}
		return b
	})
}

func TestPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()

	b1, err := Open(dir, "com.example.test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s1 := defaults.New(b1)
	if err := s1.SetDouble("f64", 123.456); err != nil {
		t.Fatal(err)
	}
	if err := s1.SetLong("i64", 42); err != nil {
		t.Fatal(err)
	}
	if err := s1.SetStringArray("arr", []string{"one", "two", "three"}); err != nil {
		t.Fatal(err)
	}

	b2, err := Open(dir, "com.example.test")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2 := defaults.New(b2)

	// The kind survives the file: a long must not come back as a double only.
	if got, ok, _ := s2.GetLong("i64"); !ok || got != 42 {
		t.Errorf("GetLong = %d, %v; want 42", got, ok)
	}
	if got, ok, _ := s2.GetDouble("f64"); !ok || got != 123.456 {
		t.Errorf("GetDouble = %v, %v; want 123.456", got, ok)
	}
	if got, ok, _ := s2.GetStringArray("arr"); !ok || strings.Join(got, ",") != "one,two,three" {
		t.Errorf("GetStringArray = %v, %v", got, ok)
	}
}

func TestDomainsAreSeparateFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	a, err := OpenFS(fs, Path("/prefs", "com.example.a"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := OpenFS(fs, Path("/prefs", "com.example.b"))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Set("k", defaults.String("a")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get("k"); ok {
		t.Error("key leaked into another domain")
	}
	if ok, _ := afero.Exists(fs, "/prefs/com.example.a.json"); !ok {
		t.Error("domain file not written")
	}
}

func TestCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/prefs/bad.json", []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFS(fs, "/prefs/bad.json"); err == nil {
		t.Fatal("expected parse error for corrupt file")
	}
}

func TestFailedWriteKeepsPreviousValue(t *testing.T) {
	base := afero.NewMemMapFs()
	b, err := OpenFS(base, "/prefs/d.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set("k", defaults.Long(1)); err != nil {
		t.Fatal(err)
	}

	b.fs = afero.NewReadOnlyFs(base)
	if err := b.Set("k", defaults.Long(2)); err == nil {
		t.Fatal("expected write error on read-only fs")
	}
	v, ok, _ := b.Get("k")
	if !ok || v.Long != 1 {
		t.Errorf("Get after failed write = %+v, %v; want 1", v, ok)
	}
}

func TestNullFileIsEmptyDomain(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/prefs/null.json", []byte("null"), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err := OpenFS(fs, "/prefs/null.json")
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	if err := b.Set("k", defaults.Long(1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := b.Get("k"); !ok || v.Long != 1 {
		t.Errorf("Get = %+v, %v; want 1", v, ok)
	}
}

func TestDropRemovesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := Path("/prefs", "com.example.scratch")
	b, err := OpenFS(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set("k", defaults.String("v")); err != nil {
		t.Fatal(err)
	}
	if err := defaults.New(b).Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if ok, _ := afero.Exists(fs, path); ok {
		t.Error("domain file still exists after Drop")
	}
	if keys, _ := b.Keys(); len(keys) != 0 {
		t.Errorf("Keys after Drop = %v", keys)
	}
	// Dropping twice is fine.
	if err := b.Drop(); err != nil {
		t.Errorf("second Drop: %v", err)
	}
}

func TestDomainsListsFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, d := range []string{"com.example.b", "com.example.a"} {
		b, err := OpenFS(fs, Path("/prefs", d))
		if err != nil {
			t.Fatal(err)
		}
		if err := b.Set("k", defaults.Long(1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := afero.WriteFile(fs, "/prefs/notes.txt", []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := OpenFS(fs, Path("/prefs", "com.example.c"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := defaults.New(b).Domains()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "com.example.a,com.example.b" {
		t.Errorf("Domains = %v", got)
	}
}
