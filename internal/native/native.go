// Package native binds the platform preferences store. On macOS this is
// CFPreferences (the store behind NSUserDefaults and the `defaults` tool);
// other platforms have no native store and report ErrUnsupported.
package native

import "errors"

// ErrUnsupported is returned on platforms without a native preferences
// store, or on macOS builds without cgo.
var ErrUnsupported = errors.New("native preferences store not supported on this platform")
