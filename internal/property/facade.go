package property

import (
	"errors"

	"github.com/roach88/prefs/internal/key"
)

// Manipulator resets or removes the store entry behind an accessor without
// knowing its value type. Every accessor variant implements it.
type Manipulator interface {
	// ResetToInitial writes the initial value back. Without an initial value
	// it behaves like RemoveFromStore. ReadOnly suppresses the write.
	ResetToInitial() error

	// RemoveFromStore deletes the key, ignoring ReadOnly.
	RemoveFromStore() error

	Key() key.Key
}

var (
	_ Manipulator = (*Property[string])(nil)
	_ Manipulator = (*Optional[string])(nil)
)

// Group applies manipulations to several accessors.
type Group []Manipulator

// ResetAll resets every member and joins their errors.
func (g Group) ResetAll() error {
	var errs []error
	for _, m := range g {
		if err := m.ResetToInitial(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RemoveAll removes every member's key and joins their errors.
func (g Group) RemoveAll() error {
	var errs []error
	for _, m := range g {
		if err := m.RemoveFromStore(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Keys returns the members' keys in order.
func (g Group) Keys() []key.Key {
	keys := make([]key.Key, len(g))
	for i, m := range g {
		keys[i] = m.Key()
	}
	return keys
}
