// Package cabi exports the preferences accessor as a C ABI. It is linked
// into libuserdefaults (go build -buildmode=c-shared ./cmd/libuserdefaults)
// and declared for C callers in user_defaults.h.
//
// Every call works on one process-wide Store. It is opened on first use
// from the userdefaults configuration unless Install has provided one.
package cabi

import (
	"log/slog"
	"os"
	"sync"

	"github.com/kalambet/userdefaults/internal/backend"
	"github.com/kalambet/userdefaults/internal/config"
	"github.com/kalambet/userdefaults/internal/defaults"
)

var state struct {
	sync.Mutex
	store  *defaults.Store
	logger *slog.Logger
	custom bool
}

// Install makes s the store behind the exported functions and returns the
// previous one, which may be nil. The caller keeps ownership of both.
func Install(s *defaults.Store) *defaults.Store {
	state.Lock()
	defer state.Unlock()
	prev := state.store
	state.store = s
	return prev
}

// SetLogger replaces the logger used for boundary diagnostics.
func SetLogger(l *slog.Logger) {
	state.Lock()
	defer state.Unlock()
	state.logger = l
	state.custom = l != nil
}

// current returns the installed store, opening one from configuration on
// first use. A failed open is logged and retried on the next call.
func current() (*defaults.Store, *slog.Logger) {
	state.Lock()
	defer state.Unlock()
	if state.logger == nil {
		state.logger = slog.Default()
	}
	if state.store != nil {
		return state.store, state.logger
	}

	cfg, err := config.Load()
	if err != nil {
		state.logger.Error("Failed to load userdefaults configuration", "error", err)
		return nil, state.logger
	}
	if lvl, err := cfg.Log.SlogLevel(); err == nil && !state.custom {
		state.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	}
	s, err := backend.OpenStore(cfg, defaults.WithLogger(state.logger))
	if err != nil {
		state.logger.Error("Failed to open user defaults store", "domain", cfg.Domain, "error", err)
		return nil, state.logger
	}
	state.store = s
	return s, state.logger
}

// logger returns the boundary logger without opening a store.
func logger() *slog.Logger {
	state.Lock()
	defer state.Unlock()
	if state.logger == nil {
		state.logger = slog.Default()
	}
	return state.logger
}
