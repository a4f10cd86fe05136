package defaults

import (
	"encoding/json"
	"fmt"
)

// Entry pairs a key with its value. It encodes as
// {"key": ..., "kind": ..., "value": ...}.
type Entry struct {
	Key   string
	Value Value
}

func (e Entry) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Value)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Key string `json:"key"`
		envelope
	}{e.Key, env})
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var head struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	var v Value
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	e.Key, e.Value = head.Key, v
	return nil
}

// Entries returns every key with its value, in key order. Keys removed
// between listing and reading are skipped.
func (s *Store) Entries() ([]Entry, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, ok, err := s.Lookup(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{Key: k, Value: v})
		}
	}
	return out, nil
}

// Clear deletes every key in the namespace.
func (s *Store) Clear() error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Delete(k); err != nil {
			return fmt.Errorf("clearing: %w", err)
		}
	}
	return nil
}

// Drop removes the namespace from its backend. Backends that cannot remove
// their storage are cleared key by key instead.
func (s *Store) Drop() error {
	if d, ok := s.backend.(Dropper); ok {
		s.trace("Dropping domain")
		return d.Drop()
	}
	return s.Clear()
}

// Domains lists the domains sharing this store's backend.
func (s *Store) Domains() ([]string, error) {
	l, ok := s.backend.(DomainLister)
	if !ok {
		return nil, ErrNoDomainList
	}
	return l.Domains()
}
