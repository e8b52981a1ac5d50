package property

import (
	"reflect"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
)

// OptionalRaw is an optional accessor for an enum-like T persisted as R.
type OptionalRaw[T plist.RawRepresentable[T, R], R plist.Storable] struct {
	cell
	def     T
	hasDef  bool
	initVal T
	hasInit bool
}

// NewOptionalRaw creates an optional raw-representable accessor for k.
func NewOptionalRaw[T plist.RawRepresentable[T, R], R plist.Storable](k key.Key, opts ...Option) *OptionalRaw[T, R] {
	return &OptionalRaw[T, R]{cell: newCell(k, opts)}
}

// WithDefault sets the value Get falls back to.
func (o *OptionalRaw[T, R]) WithDefault(v T) *OptionalRaw[T, R] {
	o.def, o.hasDef = v, true
	return o
}

// WithInitial captures v as the initial value and writes its raw form now,
// or on Bind when the key is deferred.
func (o *OptionalRaw[T, R]) WithInitial(v T) (*OptionalRaw[T, R], error) {
	enc, err := encode(v.RawValue())
	if err != nil {
		return o, err
	}
	o.initVal, o.hasInit = v, true
	return o, o.setInitial(enc)
}

// Get decodes the stored raw value, falling back to the default.
func (o *OptionalRaw[T, R]) Get() (v T, ok bool, err error) {
	stored, found, err := o.load()
	if err != nil {
		return v, false, err
	}
	if !found {
		return o.def, o.hasDef, nil
	}
	out, decoded := fromRaw[T, R](stored)
	if !decoded {
		o.logFallback(stored, reflect.TypeFor[T]())
		return o.def, o.hasDef, nil
	}
	return out, true, nil
}

// Set writes v.RawValue().
func (o *OptionalRaw[T, R]) Set(v T) error {
	enc, err := encode(v.RawValue())
	if err != nil {
		return err
	}
	return o.write(enc)
}

// SetPtr writes *v, or clears the key when v is nil.
func (o *OptionalRaw[T, R]) SetPtr(v *T) error {
	if v == nil {
		return o.Clear()
	}
	return o.Set(*v)
}

// Clear removes the key. Null is never written.
func (o *OptionalRaw[T, R]) Clear() error {
	return o.clear()
}

// Default returns the fallback value and whether one was set.
func (o *OptionalRaw[T, R]) Default() (T, bool) {
	return o.def, o.hasDef
}

// Initial returns the captured initial value, if any.
func (o *OptionalRaw[T, R]) Initial() (T, bool) {
	return o.initVal, o.hasInit
}
