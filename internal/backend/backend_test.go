package backend

import (
	"errors"
	"testing"

	"github.com/kalambet/userdefaults/internal/boltstore"
	"github.com/kalambet/userdefaults/internal/config"
	"github.com/kalambet/userdefaults/internal/defaults"
	"github.com/kalambet/userdefaults/internal/filestore"
	"github.com/kalambet/userdefaults/internal/native"
	"github.com/kalambet/userdefaults/internal/storage"
)

func testConfig(t *testing.T, kind string) config.Config {
	return config.Config{
		Domain:  "com.example.backend",
		Backend: config.BackendConfig{Kind: kind, DataDir: t.TempDir()},
	}
}

func TestResolve(t *testing.T) {
	want := "file"
	if native.Supported {
		want = "native"
	}
	if got := Resolve("auto"); got != want {
		t.Errorf("Resolve(auto) = %q, want %q", got, want)
	}
	if got := Resolve("bolt"); got != "bolt" {
		t.Errorf("Resolve(bolt) = %q", got)
	}
}

func TestOpenKinds(t *testing.T) {
	tests := []struct {
		kind  string
		check func(defaults.Backend) bool
	}{
		{"memory", func(b defaults.Backend) bool { _, ok := b.(*defaults.MemoryBackend); return ok }},
		{"file", func(b defaults.Backend) bool { _, ok := b.(*filestore.Backend); return ok }},
		{"sqlite", func(b defaults.Backend) bool { _, ok := b.(*storage.DomainBackend); return ok }},
		{"bolt", func(b defaults.Backend) bool { _, ok := b.(*boltstore.Backend); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			b, err := Open(testConfig(t, tt.kind))
			if err != nil {
				t.Fatalf("Open(%s): %v", tt.kind, err)
			}
			defer b.Close()
			if !tt.check(b) {
				t.Errorf("Open(%s) returned %T", tt.kind, b)
			}

			s := defaults.New(b)
			if err := s.SetLong("answer", 42); err != nil {
				t.Fatalf("SetLong: %v", err)
			}
			if v, ok, err := s.GetLong("answer"); err != nil || !ok || v != 42 {
				t.Errorf("GetLong = %d, %v, %v", v, ok, err)
			}
		})
	}
}

func TestOpenNativeOffPlatform(t *testing.T) {
	if native.Supported {
		t.Skip("native store available")
	}
	b, err := Open(testConfig(t, "native"))
	if !errors.Is(err, native.ErrUnsupported) {
		t.Errorf("Open(native) err = %v, want ErrUnsupported", err)
	}
	if b != nil {
		t.Errorf("Open(native) returned non-nil backend %T on error", b)
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(testConfig(t, "redis"))
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore(testConfig(t, "memory"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok, err := s.GetString("missing"); ok || err != nil {
		t.Errorf("GetString(missing) = %v, %v", ok, err)
	}
}
