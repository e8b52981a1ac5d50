package property

import (
	"reflect"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
)

// Raw is a required-default accessor for an enum-like T persisted as its raw
// value R. A stored raw value that FromRaw rejects reads as the default.
//
// Type arguments are usually spelled out: NewRaw[Language, string](...).
type Raw[T plist.RawRepresentable[T, R], R plist.Storable] struct {
	cell
	def     T
	initVal T
	hasInit bool
}

// NewRaw creates a raw-representable accessor for k.
func NewRaw[T plist.RawRepresentable[T, R], R plist.Storable](k key.Key, def T, opts ...Option) *Raw[T, R] {
	return &Raw[T, R]{cell: newCell(k, opts), def: def}
}

// WithInitial captures v as the initial value and writes its raw form now,
// or on Bind when the key is deferred.
func (p *Raw[T, R]) WithInitial(v T) (*Raw[T, R], error) {
	enc, err := encode(v.RawValue())
	if err != nil {
		return p, err
	}
	p.initVal, p.hasInit = v, true
	return p, p.setInitial(enc)
}

// Get decodes the stored raw value and maps it through FromRaw.
func (p *Raw[T, R]) Get() (T, error) {
	v, ok, err := p.load()
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		return p.def, nil
	}
	out, ok := fromRaw[T, R](v)
	if !ok {
		p.logFallback(v, reflect.TypeFor[T]())
		return p.def, nil
	}
	return out, nil
}

// Set writes v.RawValue().
func (p *Raw[T, R]) Set(v T) error {
	enc, err := encode(v.RawValue())
	if err != nil {
		return err
	}
	return p.write(enc)
}

// Default returns the fallback value.
func (p *Raw[T, R]) Default() T {
	return p.def
}

// Initial returns the captured initial value, if any.
func (p *Raw[T, R]) Initial() (T, bool) {
	return p.initVal, p.hasInit
}

// fromRaw decodes v as R and converts it with T's FromRaw.
func fromRaw[T plist.RawRepresentable[T, R], R plist.Storable](v plist.Value) (T, bool) {
	var zero T
	raw, ok := decode[R](v)
	if !ok {
		return zero, false
	}
	return zero.FromRaw(raw)
}
