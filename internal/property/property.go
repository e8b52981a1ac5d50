package property

import (
	"reflect"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
)

// Property is a required-default accessor for a storable T.
type Property[T plist.Storable] struct {
	cell
	def     T
	initVal T
	hasInit bool
}

// New creates an accessor for k that reads def when nothing usable is stored.
func New[T plist.Storable](k key.Key, def T, opts ...Option) *Property[T] {
	return &Property[T]{cell: newCell(k, opts), def: def}
}

// WithInitial captures v as the initial value and writes it now, or on Bind
// when the key is deferred. The accessor is returned for chaining.
func (p *Property[T]) WithInitial(v T) (*Property[T], error) {
	enc, err := encode(v)
	if err != nil {
		return p, err
	}
	p.initVal, p.hasInit = v, true
	return p, p.setInitial(enc)
}

// Get returns the stored value, or the default when the key is absent, holds
// Null, or holds a value that does not decode to T.
func (p *Property[T]) Get() (T, error) {
	v, ok, err := p.load()
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		return p.Default(), nil
	}
	out, ok := decode[T](v)
	if !ok {
		p.logFallback(v, reflect.TypeFor[T]())
		return p.Default(), nil
	}
	return out, nil
}

// Set writes v. It is a no-op on a read-only accessor.
func (p *Property[T]) Set(v T) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	return p.write(enc)
}

// Default returns the fallback value.
func (p *Property[T]) Default() T {
	return cloneValue(p.def)
}

// Initial returns the captured initial value, if any.
func (p *Property[T]) Initial() (T, bool) {
	return cloneValue(p.initVal), p.hasInit
}
