// Package filestore persists one preferences domain as a JSON file.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// Backend stores a domain as a flat JSON object mapping keys to typed
// value envelopes, e.g. {"volume": {"kind": "double", "value": 0.5}}.
// Every write rewrites the file through a temp file and rename.
type Backend struct {
	fs   afero.Fs
	path string

	mu   sync.Mutex
	data map[string]defaults.Value
}

// Path returns the file used for domain under dir.
func Path(dir, domain string) string {
	return filepath.Join(dir, domain+".json")
}

// Open loads the domain file under dir on the OS filesystem.
func Open(dir, domain string) (*Backend, error) {
	return OpenFS(afero.NewOsFs(), Path(dir, domain))
}

// OpenFS loads path from fs. A missing file is an empty domain.
func OpenFS(fs afero.Fs, path string) (*Backend, error) {
	b := &Backend{fs: fs, path: path, data: make(map[string]defaults.Value)}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) load() error {
	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", b.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &b.data); err != nil {
		return fmt.Errorf("parsing %s: %w", b.path, err)
	}
	// A file holding JSON null decodes to a nil map.
	if b.data == nil {
		b.data = make(map[string]defaults.Value)
	}
	return nil
}

// save must be called with mu held.
func (b *Backend) save() error {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := b.path + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := b.fs.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}

func (b *Backend) Get(key string) (defaults.Value, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return defaults.Value{}, false, nil
	}
	return v.Clone(), true, nil
}

func (b *Backend) Set(key string, val defaults.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, had := b.data[key]
	b.data[key] = val.Clone()
	if err := b.save(); err != nil {
		if had {
			b.data[key] = prev
		} else {
			delete(b.data, key)
		}
		return err
	}
	return nil
}

func (b *Backend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, had := b.data[key]
	if !had {
		return nil
	}
	delete(b.data, key)
	if err := b.save(); err != nil {
		b.data[key] = prev
		return err
	}
	return nil
}

func (b *Backend) Keys() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Drop removes the domain file. The backend stays usable as an empty
// domain; the next write recreates the file.
func (b *Backend) Drop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fs.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", b.path, err)
	}
	b.data = make(map[string]defaults.Value)
	return nil
}

// Domains lists the domain files next to this one.
func (b *Backend) Domains() ([]string, error) {
	infos, err := afero.ReadDir(b.fs, filepath.Dir(b.path))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	domains := []string{}
	for _, fi := range infos {
		name := fi.Name()
		if fi.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		domains = append(domains, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(domains)
	return domains, nil
}

func (b *Backend) Close() error { return nil }
