package property

import (
	"reflect"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
)

// Optional is an accessor whose value may be absent. Without WithDefault an
// unset key reads as (zero, false).
type Optional[T plist.Storable] struct {
	cell
	def     T
	hasDef  bool
	initVal T
	hasInit bool
}

// NewOptional creates an optional accessor for k.
func NewOptional[T plist.Storable](k key.Key, opts ...Option) *Optional[T] {
	return &Optional[T]{cell: newCell(k, opts)}
}

// WithDefault sets the value Get falls back to.
func (o *Optional[T]) WithDefault(v T) *Optional[T] {
	o.def, o.hasDef = v, true
	return o
}

// WithInitial captures v as the initial value and writes it now, or on Bind
// when the key is deferred.
func (o *Optional[T]) WithInitial(v T) (*Optional[T], error) {
	enc, err := encode(v)
	if err != nil {
		return o, err
	}
	o.initVal, o.hasInit = v, true
	return o, o.setInitial(enc)
}

// Get returns the stored value, falling back to the default. ok is false
// only when nothing usable is stored and there is no default.
func (o *Optional[T]) Get() (v T, ok bool, err error) {
	stored, found, err := o.load()
	if err != nil {
		return v, false, err
	}
	if !found {
		v, ok = o.Default()
		return v, ok, nil
	}
	out, decoded := decode[T](stored)
	if !decoded {
		o.logFallback(stored, reflect.TypeFor[T]())
		v, ok = o.Default()
		return v, ok, nil
	}
	return out, true, nil
}

// Set writes v.
func (o *Optional[T]) Set(v T) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	return o.write(enc)
}

// SetPtr writes *v, or clears the key when v is nil.
func (o *Optional[T]) SetPtr(v *T) error {
	if v == nil {
		return o.Clear()
	}
	return o.Set(*v)
}

// Clear removes the key so the next Get falls back to the default. Null is
// never written.
func (o *Optional[T]) Clear() error {
	return o.clear()
}

// Default returns the fallback value and whether one was set.
func (o *Optional[T]) Default() (T, bool) {
	return cloneValue(o.def), o.hasDef
}

// Initial returns the captured initial value, if any.
func (o *Optional[T]) Initial() (T, bool) {
	return cloneValue(o.initVal), o.hasInit
}
