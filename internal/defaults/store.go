// Package defaults provides typed access (long, double, string, string
// array) to a platform key-value preferences store.
//
// A Store wraps one Backend, which owns persistence. Reads report absence
// with an ok flag, never with a sentinel value; a key holding a value of a
// different kind reads as absent. Reads return memory the caller owns and
// writes copy their inputs, so neither side can observe the other's later
// mutations.
package defaults

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// LevelTrace is below slog.LevelDebug and carries one line per accessor
// call.
const LevelTrace = slog.Level(-8)

var (
	// ErrInvalidKey is returned for keys that are empty or contain a NUL
	// byte; such keys cannot cross a C string boundary.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidString is returned for string values (or array elements)
	// that contain a NUL byte or are not valid UTF-8.
	ErrInvalidString = errors.New("invalid string value")
	// ErrNoDomainList is returned by Domains for backends that hold a
	// single domain.
	ErrNoDomainList = errors.New("backend does not list domains")
)

// Store is the typed accessor over a single preferences namespace.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for trace output. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store over b.
func New(b Backend, opts ...Option) *Store {
	s := &Store{backend: b, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying backend.
func (s *Store) Close() error { return s.backend.Close() }

func (s *Store) trace(msg string, args ...any) {
	s.logger.Log(context.Background(), LevelTrace, msg, args...)
}

// GetLong returns the long stored under key. ok is false when the key is
// absent or holds another kind.
func (s *Store) GetLong(key string) (int64, bool, error) {
	v, ok, err := s.fetch(KindLong, key)
	if err != nil || !ok {
		return 0, false, err
	}
	return v.Long, true, nil
}

// SetLong stores v under key, replacing any prior value.
func (s *Store) SetLong(key string, v int64) error {
	return s.store(key, Long(v))
}

// GetDouble returns the double stored under key. A stored long is widened
// to float64; any other kind reads as absent.
func (s *Store) GetDouble(key string) (float64, bool, error) {
	v, ok, err := s.fetch(KindDouble, key)
	if err != nil || !ok {
		return 0, false, err
	}
	return v.Double, true, nil
}

// SetDouble stores v under key, replacing any prior value.
func (s *Store) SetDouble(key string, v float64) error {
	return s.store(key, Double(v))
}

// GetString returns the string stored under key.
func (s *Store) GetString(key string) (string, bool, error) {
	v, ok, err := s.fetch(KindString, key)
	if err != nil || !ok {
		return "", false, err
	}
	return v.String, true, nil
}

// SetString stores v under key. The empty string is a value, not a delete.
func (s *Store) SetString(key, v string) error {
	if err := validateString(v); err != nil {
		return err
	}
	return s.store(key, String(v))
}

// GetStringArray returns a freshly allocated copy of the array stored
// under key, in stored order. A stored empty array comes back as a
// non-nil empty slice.
func (s *Store) GetStringArray(key string) ([]string, bool, error) {
	v, ok, err := s.fetch(KindStringArray, key)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make([]string, len(v.Strings))
	copy(out, v.Strings)
	return out, true, nil
}

// SetStringArray copies vs and stores it under key, replacing any prior
// value.
func (s *Store) SetStringArray(key string, vs []string) error {
	for i, e := range vs {
		if err := validateString(e); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return s.store(key, StringArray(vs))
}

// GetKind reads key through the typed accessor for kind and returns the
// result as a Value. A long requested as a double comes back widened.
func (s *Store) GetKind(kind Kind, key string) (Value, bool, error) {
	switch kind {
	case KindLong, KindDouble, KindString, KindStringArray:
	default:
		return Value{}, false, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	return s.fetch(kind, key)
}

// Lookup returns whatever is stored under key, regardless of kind.
func (s *Store) Lookup(key string) (Value, bool, error) {
	if err := validateKey(key); err != nil {
		return Value{}, false, err
	}
	v, ok, err := s.backend.Get(key)
	if err != nil {
		return Value{}, false, fmt.Errorf("reading %q: %w", key, err)
	}
	if !ok {
		return Value{}, false, nil
	}
	return v.Clone(), true, nil
}

// Set stores an already typed value.
func (s *Store) Set(key string, v Value) error {
	switch v.Kind {
	case KindString:
		if err := validateString(v.String); err != nil {
			return err
		}
	case KindStringArray:
		for i, e := range v.Strings {
			if err := validateString(e); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	case KindLong, KindDouble:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(v.Kind))
	}
	return s.store(key, v.Clone())
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.trace("Deleting user defaults key", "key", key)
	if err := s.backend.Delete(key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Keys lists every key in the namespace in ascending order.
func (s *Store) Keys() ([]string, error) {
	keys, err := s.backend.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

func (s *Store) fetch(kind Kind, key string) (Value, bool, error) {
	if err := validateKey(key); err != nil {
		return Value{}, false, err
	}
	s.trace("Fetching user defaults value", "kind", kind, "key", key)
	v, ok, err := s.backend.Get(key)
	if err != nil {
		return Value{}, false, fmt.Errorf("reading %s %q: %w", kind, key, err)
	}
	if ok && v.Kind != kind {
		if kind == KindDouble && v.Kind == KindLong {
			v = Double(float64(v.Long))
		} else {
			ok = false
		}
	}
	if !ok {
		s.trace("User defaults key was not present or not of the requested kind", "kind", kind, "key", key)
		return Value{}, false, nil
	}
	s.trace("Fetched user defaults value", "kind", kind, "key", key, "value", v.Format())
	return v, true, nil
}

func (s *Store) store(key string, v Value) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.trace("Setting user defaults key", "kind", v.Kind, "key", key, "value", v.Format())
	if err := s.backend.Set(key, v); err != nil {
		return fmt.Errorf("writing %s %q: %w", v.Kind, key, err)
	}
	s.trace("Set user defaults key", "kind", v.Kind, "key", key)
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.IndexByte(key, 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidKey, key)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidKey, key)
	}
	return nil
}

func validateString(v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidString, v)
	}
	if !utf8.ValidString(v) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidString, v)
	}
	return nil
}
