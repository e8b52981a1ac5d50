// Package key resolves the store key an accessor reads and writes.
//
// A Key is either fixed at construction or deferred: some keys depend on an
// identifier that only exists after the owning object is built (an account
// id, for example). A deferred key is bound exactly once, before first use.
package key

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ErrNotBound is matched by NotBoundError via errors.Is.
var ErrNotBound = errors.New("key not bound")

// ErrAlreadyBound is returned by Bind on a strict key that is already fixed.
var ErrAlreadyBound = errors.New("key already bound")

// NotBoundError is returned when an operation that needs a fixed key runs
// against a deferred one. It is a programming error: the owner forgot to
// call Bind.
type NotBoundError struct {
	// Label describes the accessor for diagnostics; it may be empty.
	Label string
}

func (e *NotBoundError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("key not bound for %s", e.Label)
	}
	return "key not bound"
}

func (e *NotBoundError) Is(target error) bool {
	return target == ErrNotBound
}

// IsNotBound returns true if err is, or wraps, a NotBoundError.
func IsNotBound(err error) bool {
	return errors.Is(err, ErrNotBound)
}

// Key is a write-once key cell. The zero value is a deferred key.
//
// Once a Key holds a fixed name it never changes again.
type Key struct {
	name   string
	strict bool
}

// Fixed returns a key bound to name. Names are NFC normalized so that
// canonically equivalent strings address the same store entry.
// Fixed("") is the same as Deferred().
func Fixed(name string) Key {
	return Key{name: normalize(name)}
}

// Deferred returns a key that must be bound before use.
func Deferred() Key {
	return Key{}
}

// Strict returns a copy of k whose Bind reports ErrAlreadyBound instead of
// silently ignoring a second bind.
func (k Key) Strict() Key {
	k.strict = true
	return k
}

// NewStrict is Fixed(name).Strict(). NewStrict("") is a strict deferred key.
func NewStrict(name string) Key {
	return Fixed(name).Strict()
}

// IsBound reports whether k holds a fixed name.
func (k Key) IsBound() bool {
	return k.name != ""
}

// Bind fixes a deferred key to name.
//
// Binding an already fixed key is a no-op: the first name wins. Strict keys
// return ErrAlreadyBound instead, unless name equals the bound name. Binding
// the empty string leaves the key deferred.
func (k *Key) Bind(name string) error {
	name = normalize(name)
	if name == "" {
		return nil
	}
	if k.name != "" {
		if k.strict && k.name != name {
			return fmt.Errorf("bind %q: %w (bound to %q)", name, ErrAlreadyBound, k.name)
		}
		return nil
	}
	k.name = name
	return nil
}

// Resolve returns the fixed name, or a *NotBoundError while k is deferred.
func (k Key) Resolve() (string, error) {
	if k.name == "" {
		return "", &NotBoundError{}
	}
	return k.name, nil
}

// String returns the fixed name, or "<deferred>".
func (k Key) String() string {
	if k.name == "" {
		return "<deferred>"
	}
	return k.name
}

func normalize(name string) string {
	return norm.NFC.String(name)
}
