package property

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/roach88/prefs/internal/plist"
)

var timeType = reflect.TypeFor[time.Time]()

// encode converts a storable Go value into a plist Value. A nil slice or map
// becomes an empty container. Raw-representable values are written through
// RawValue.
func encode[T any](v T) (plist.Value, error) {
	in := any(v)
	if plist.IsRawRepresentable(reflect.TypeFor[T]()) {
		in = reflect.ValueOf(v).MethodByName("RawValue").Call(nil)[0].Interface()
	}
	out, err := plist.FromGo(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", reflect.TypeFor[T](), err)
	}
	return out, nil
}

// decode converts a stored Value into T. ok is false when the value does not
// match T: wrong kind, a lossy Int/Float conversion, an out of range
// integer, or any bad element of a list or map.
//
// A raw-representable T is decoded into its raw type and then through
// FromRaw, so an unknown tag never leaks out as a T.
func decode[T any](v plist.Value) (T, bool) {
	var zero T
	t := reflect.TypeFor[T]()
	if plist.IsRawRepresentable(t) {
		return decodeRaw[T](v)
	}
	dst := reflect.New(t).Elem()
	if !assign(dst, v, 0) {
		return zero, false
	}
	return dst.Interface().(T), true
}

func decodeRaw[T any](v plist.Value) (T, bool) {
	var zero T
	fromRaw := reflect.ValueOf(&zero).Elem().MethodByName("FromRaw")
	raw := reflect.New(fromRaw.Type().In(0)).Elem()
	if !assign(raw, v, 0) {
		return zero, false
	}
	out := fromRaw.Call([]reflect.Value{raw})
	if !out[1].Bool() {
		return zero, false
	}
	return out[0].Interface().(T), true
}

// cloneValue returns a deep copy of slices and maps so callers cannot mutate
// a stored default through the returned value.
func cloneValue[T any](v T) T {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return v
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return v
		}
	default:
		return v
	}
	enc, err := encode(v)
	if err != nil {
		return v
	}
	out, ok := decode[T](enc)
	if !ok {
		return v
	}
	return out
}

func assign(dst reflect.Value, v plist.Value, depth int) bool {
	t := dst.Type()
	if t == timeType {
		d, ok := v.(plist.Date)
		if !ok {
			return false
		}
		dst.Set(reflect.ValueOf(d.Time()))
		return true
	}

	switch t.Kind() {
	case reflect.String:
		s, ok := v.(plist.String)
		if !ok {
			return false
		}
		dst.SetString(string(s))
		return true

	case reflect.Bool:
		b, ok := v.(plist.Bool)
		if !ok {
			return false
		}
		dst.SetBool(bool(b))
		return true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := asInt(v)
		if !ok || dst.OverflowInt(n) {
			return false
		}
		dst.SetInt(n)
		return true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		n, ok := asInt(v)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return false
		}
		dst.SetUint(uint64(n))
		return true

	case reflect.Float32, reflect.Float64:
		f, ok := asFloat(v)
		if !ok || dst.OverflowFloat(f) {
			return false
		}
		if _, isInt := v.(plist.Int); isInt && t.Kind() == reflect.Float32 && float64(float32(f)) != f {
			return false
		}
		dst.SetFloat(f)
		return true

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			data, ok := v.(plist.Data)
			if !ok {
				return false
			}
			b := reflect.MakeSlice(t, len(data), len(data))
			reflect.Copy(b, reflect.ValueOf([]byte(data)))
			dst.Set(b)
			return true
		}
		arr, ok := v.(plist.Array)
		if !ok || depth > 0 {
			return false
		}
		s := reflect.MakeSlice(t, len(arr), len(arr))
		for i, elem := range arr {
			if !assign(s.Index(i), elem, depth+1) {
				return false
			}
		}
		dst.Set(s)
		return true

	case reflect.Map:
		dict, ok := v.(plist.Dict)
		if !ok || depth > 0 || t.Key().Kind() != reflect.String {
			return false
		}
		m := reflect.MakeMapWithSize(t, len(dict))
		for k, elem := range dict {
			ev := reflect.New(t.Elem()).Elem()
			if !assign(ev, elem, depth+1) {
				return false
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		dst.Set(m)
		return true
	}
	return false
}

// asInt accepts Int, and Float when it holds an exact integer in int64 range.
func asInt(v plist.Value) (int64, bool) {
	switch n := v.(type) {
	case plist.Int:
		return int64(n), true
	case plist.Float:
		f := float64(n)
		if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

// asFloat accepts Float, and Int when float64 represents it exactly.
func asFloat(v plist.Value) (float64, bool) {
	switch n := v.(type) {
	case plist.Float:
		return float64(n), true
	case plist.Int:
		f := float64(n)
		if f >= 1<<63 || int64(f) != int64(n) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
