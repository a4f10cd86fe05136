package defaults

import (
	"sort"
	"sync"
)

// Backend abstracts the platform preferences store a Store reads from and
// writes to. Implementations persist typed values: a value written with
// one kind must come back with the same kind.
//
// Get reports ok=false for absent keys; absence is not an error.
// Set overwrites any prior value of any kind.
// Delete of an absent key is a no-op.
type Backend interface {
	Get(key string) (val Value, ok bool, err error)
	Set(key string, val Value) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// Dropper is implemented by backends that can remove the storage of their
// domain (a file, a bucket, a set of rows) rather than only its keys.
type Dropper interface {
	Drop() error
}

// DomainLister is implemented by backends that keep several domains in one
// place and can name the ones holding keys.
type DomainLister interface {
	Domains() ([]string, error)
}

// MemoryBackend keeps values in a map. It is the in-process fake used by
// tests and the "memory" backend kind.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]Value
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]Value)}
}

func (b *MemoryBackend) Get(key string) (Value, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return Value{}, false, nil
	}
	return v.Clone(), true, nil
}

func (b *MemoryBackend) Set(key string, val Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = val.Clone()
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *MemoryBackend) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *MemoryBackend) Close() error { return nil }
