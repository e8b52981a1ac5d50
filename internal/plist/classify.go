package plist

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Scalar is the set of Go types that map onto a single storable value.
// Named types are accepted through their underlying kind, except time.Time
// and []byte which must be used as-is. A named type that is also
// RawRepresentable is still encoded and decoded through its raw form.
type Scalar interface {
	~string | ~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 |
		~float32 | ~float64 |
		time.Time | []byte
}

// Storable is the set of Go types an accessor may hold: scalars plus one
// level of lists and string-keyed maps of the builtin scalars.
type Storable interface {
	Scalar |
		[]string | []bool | []int | []int64 | []float64 | []time.Time | [][]byte |
		map[string]string | map[string]bool | map[string]int | map[string]int64 |
		map[string]float64 | map[string]time.Time | map[string][]byte
}

// RawRepresentable is implemented by enum-like types that are persisted as a
// storable raw value R.
//
// RawValue must be total. FromRaw is partial: it reports false when raw does
// not correspond to any T (a stale enum tag, for example). FromRaw is called
// on the zero value of T and must not depend on the receiver.
type RawRepresentable[T any, R Storable] interface {
	RawValue() R
	FromRaw(raw R) (T, bool)
}

// Class is the result of classifying a Go type.
type Class int

const (
	ClassUnsupported Class = iota
	ClassStorable
	ClassRawRepresentable
)

func (c Class) String() string {
	switch c {
	case ClassStorable:
		return "storable"
	case ClassRawRepresentable:
		return "raw-representable"
	default:
		return "unsupported"
	}
}

// UnsupportedTypeError is returned when a type is neither storable nor
// raw-representable.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	name := "<nil>"
	if e.Type != nil {
		name = e.Type.String()
	}
	if e.Reason != "" {
		return fmt.Sprintf("unsupported type %s: %s", name, e.Reason)
	}
	return fmt.Sprintf("unsupported type %s", name)
}

var (
	timeType  = reflect.TypeFor[time.Time]()
	bytesType = reflect.TypeFor[[]byte]()
	boolType  = reflect.TypeFor[bool]()
)

// Classify reports whether t is storable, raw-representable, or neither.
// The error is an *UnsupportedTypeError when the class is ClassUnsupported.
//
// Raw-representable wins over storable: a named string enum with RawValue
// and FromRaw methods is always persisted through its raw form.
func Classify(t reflect.Type) (Class, error) {
	if t == nil {
		return ClassUnsupported, &UnsupportedTypeError{Reason: "nil type"}
	}
	if IsRawRepresentable(t) {
		return ClassRawRepresentable, nil
	}
	if reason := storableReason(t, 0); reason != "" {
		return ClassUnsupported, &UnsupportedTypeError{Type: t, Reason: reason}
	}
	return ClassStorable, nil
}

// IsStorable reports whether values of t can be written to the store
// directly. It is false for raw-representable types.
func IsStorable(t reflect.Type) bool {
	c, _ := Classify(t)
	return c == ClassStorable
}

// IsRawRepresentable reports whether t has the RawRepresentable method set
// with a storable raw type.
func IsRawRepresentable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	toRaw, ok := t.MethodByName("RawValue")
	if !ok {
		return false
	}
	// Method types from a reflect.Type include the receiver as first input.
	if toRaw.Type.NumIn() != 1 || toRaw.Type.NumOut() != 1 {
		return false
	}
	raw := toRaw.Type.Out(0)
	if storableReason(raw, 0) != "" {
		return false
	}

	fromRaw, ok := t.MethodByName("FromRaw")
	if !ok {
		return false
	}
	ft := fromRaw.Type
	return ft.NumIn() == 2 && ft.In(1) == raw &&
		ft.NumOut() == 2 && ft.Out(0) == t && ft.Out(1) == boolType
}

// StorableType reports IsStorable for T.
func StorableType[T any]() bool {
	return IsStorable(reflect.TypeFor[T]())
}

// RawRepresentableType reports IsRawRepresentable for T.
func RawRepresentableType[T any]() bool {
	return IsRawRepresentable(reflect.TypeFor[T]())
}

// storableReason returns "" when t is storable, otherwise why it is not.
func storableReason(t reflect.Type, depth int) string {
	if t == timeType || t == bytesType {
		return ""
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32, reflect.Float64:
		return ""
	case reflect.Uint64, reflect.Uintptr:
		return "unsigned 64-bit integers do not fit the int64 store domain"
	case reflect.Slice:
		if depth > 0 {
			return "nested lists are not supported"
		}
		return storableReason(t.Elem(), depth+1)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return "map keys must be strings"
		}
		if depth > 0 {
			return "nested maps are not supported"
		}
		return storableReason(t.Elem(), depth+1)
	default:
		return fmt.Sprintf("%s values are not plist-compatible", t.Kind())
	}
}

// FromGo converts a dynamically typed Go value into a Value.
//
// Accepted inputs are nil (Null), Values, the scalar kinds, time.Time,
// []byte, and slices or string-keyed maps of those, nested to any depth
// (decoded YAML and CUE trees arrive as []any and map[string]any).
func FromGo(v any) (Value, error) {
	if v == nil {
		return Null{}, nil
	}
	if val, ok := v.(Value); ok {
		if err := Validate(val); err != nil {
			return nil, err
		}
		return val, nil
	}
	out, err := fromReflect(reflect.ValueOf(v), 0)
	if err != nil {
		return nil, err
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromReflect(rv reflect.Value, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("nesting deeper than %d levels (cycle?)", maxDepth)
	}
	t := rv.Type()
	switch {
	case t == timeType:
		return Date(rv.Interface().(time.Time)), nil
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return Data(append([]byte(nil), rv.Bytes()...)), nil
	}

	switch t.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite float %v", f)
		}
		return Float(f), nil
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return nil, &UnsupportedTypeError{Type: t, Reason: "nil element"}
		}
		if val, ok := rv.Interface().(Value); ok {
			return val, nil
		}
		return fromReflect(rv.Elem(), depth)
	case reflect.Slice, reflect.Array:
		arr := make(Array, rv.Len())
		for i := range arr {
			elem, err := fromReflect(rv.Index(i), depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = elem
		}
		return arr, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, &UnsupportedTypeError{Type: t, Reason: "map keys must be strings"}
		}
		d := make(Dict, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			elem, err := fromReflect(iter.Value(), depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			d[k] = elem
		}
		return d, nil
	}
	return nil, &UnsupportedTypeError{Type: t, Reason: fmt.Sprintf("%s values are not plist-compatible", t.Kind())}
}

// ToGo converts v into plain Go values: nil, bool, int64, float64, string,
// time.Time, []byte, []any and map[string]any.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Date:
		return val.Time()
	case Data:
		return []byte(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Dict:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	}
	return nil
}
