// Package backend opens the defaults.Backend selected by configuration.
package backend

import (
	"errors"
	"fmt"

	"github.com/kalambet/userdefaults/internal/boltstore"
	"github.com/kalambet/userdefaults/internal/config"
	"github.com/kalambet/userdefaults/internal/defaults"
	"github.com/kalambet/userdefaults/internal/filestore"
	"github.com/kalambet/userdefaults/internal/native"
	"github.com/kalambet/userdefaults/internal/storage"
)

var ErrUnknownBackend = errors.New("unknown backend")

// Resolve maps "auto" to the native store where one exists and to the file
// store elsewhere. Other kinds are returned unchanged.
func Resolve(kind string) string {
	if kind != "auto" {
		return kind
	}
	if native.Supported {
		return "native"
	}
	return "file"
}

// Open returns the backend for cfg.Backend.Kind bound to cfg.Domain.
func Open(cfg config.Config) (defaults.Backend, error) {
	var (
		b   defaults.Backend
		err error
	)
	switch Resolve(cfg.Backend.Kind) {
	case "memory":
		b = defaults.NewMemoryBackend()
	case "file":
		b, err = nonNil(filestore.Open(cfg.Backend.DataDir, cfg.Domain))
	case "sqlite":
		b, err = nonNil(storage.OpenBackend(cfg.Backend.DataDir, cfg.Domain))
	case "bolt":
		b, err = nonNil(boltstore.Open(cfg.Backend.DataDir, cfg.Domain))
	case "native":
		b, err = native.Open(cfg.Domain)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend.Kind)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// nonNil keeps a failed constructor's typed nil pointer out of the
// interface.
func nonNil[B defaults.Backend](b B, err error) (defaults.Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

// OpenStore wraps Open in a defaults.Store.
func OpenStore(cfg config.Config, opts ...defaults.Option) (*defaults.Store, error) {
	b, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", Resolve(cfg.Backend.Kind), err)
	}
	return defaults.New(b, opts...), nil
}
