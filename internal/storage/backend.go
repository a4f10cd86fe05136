package storage

import (
	"errors"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// DomainBackend exposes one domain of a Store as a defaults.Backend.
type DomainBackend struct {
	store  *Store
	domain string
	owned  bool
}

// Domain returns a backend bound to domain. Closing it leaves s open.
func (s *Store) Domain(domain string) *DomainBackend {
	return &DomainBackend{store: s, domain: domain}
}

// OpenBackend opens the database in dataDir and binds it to domain.
// Closing the backend closes the database.
func OpenBackend(dataDir, domain string) (*DomainBackend, error) {
	s, err := Open(dataDir)
	if err != nil {
		return nil, err
	}
	b := s.Domain(domain)
	b.owned = true
	return b, nil
}

func (b *DomainBackend) Get(key string) (defaults.Value, bool, error) {
	p, err := b.store.GetPreference(b.domain, key)
	if errors.Is(err, ErrNotFound) {
		return defaults.Value{}, false, nil
	}
	if err != nil {
		return defaults.Value{}, false, err
	}
	return p.Value, true, nil
}

func (b *DomainBackend) Set(key string, val defaults.Value) error {
	return b.store.SetPreference(b.domain, key, val)
}

func (b *DomainBackend) Delete(key string) error {
	return b.store.DeletePreference(b.domain, key)
}

func (b *DomainBackend) Keys() ([]string, error) {
	return b.store.ListPreferenceKeys(b.domain)
}

// Drop deletes the rows of this domain.
func (b *DomainBackend) Drop() error {
	return b.store.DeleteDomain(b.domain)
}

// Domains lists every domain in the database that holds a key.
func (b *DomainBackend) Domains() ([]string, error) {
	return b.store.ListDomains()
}

func (b *DomainBackend) Close() error {
	if !b.owned {
		return nil
	}
	return b.store.Close()
}
