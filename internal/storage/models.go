package storage

import (
	"errors"
	"time"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Preference is one row of the preferences table.
type Preference struct {
	Domain    string
	Key       string
	Value     defaults.Value
	UpdatedAt time.Time
}
