//go:build !darwin || !cgo

package native

import "github.com/kalambet/userdefaults/internal/defaults"

// Supported reports whether Open can succeed on this build.
const Supported = false

// Open always fails with ErrUnsupported on this build.
func Open(domain string) (defaults.Backend, error) {
	return nil, ErrUnsupported
}
