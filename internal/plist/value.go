package plist

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface representing a storable value.
// Only Null, Bool, Int, Float, String, Date, Data, Array and Dict implement it.
type Value interface {
	plistValue() // Sealed - only these types implement it
	Kind() Kind
}

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
	KindData
	KindArray
	KindDict
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindDate:   "date",
	KindData:   "data",
	KindArray:  "array",
	KindDict:   "dict",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown value kind %q", s)
}

// Null marks a key that is present in the store but holds no value.
// Readers treat it exactly like an absent key.
type Null struct{}

func (Null) plistValue() {}
func (Null) Kind() Kind  { return KindNull }

// Bool is a boolean value.
type Bool bool

func (Bool) plistValue() {}
func (Bool) Kind() Kind  { return KindBool }

// Int is an integer value. Always int64.
type Int int64

func (Int) plistValue() {}
func (Int) Kind() Kind  { return KindInt }

// Float is a finite floating-point value.
type Float float64

func (Float) plistValue() {}
func (Float) Kind() Kind  { return KindFloat }

// String is a string value.
type String string

func (String) plistValue() {}
func (String) Kind() Kind  { return KindString }

// Date is a point in time.
type Date time.Time

func (Date) plistValue() {}
func (Date) Kind() Kind  { return KindDate }

// Time returns the date as a time.Time.
func (d Date) Time() time.Time { return time.Time(d) }

// NewDate creates a Date value.
func NewDate(t time.Time) Date {
	return Date(t)
}

// Data is a byte buffer.
type Data []byte

func (Data) plistValue() {}
func (Data) Kind() Kind  { return KindData }

// Array is an ordered list of values.
type Array []Value

func (Array) plistValue() {}
func (Array) Kind() Kind  { return KindArray }

// NewArray creates an Array from values.
func NewArray(vals ...Value) Array {
	return Array(vals)
}

// Dict maps string keys to values.
// Use SortedKeys() for deterministic iteration.
type Dict map[string]Value

func (Dict) plistValue() {}
func (Dict) Kind() Kind  { return KindDict }

// Pair is a key-value pair for Dict construction.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewDict(P("lang", String("fi")), P("volume", Int(5)))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewDict creates a Dict from key-value pairs.
func NewDict(pairs ...Pair) Dict {
	d := make(Dict, len(pairs))
	for _, p := range pairs {
		d[p.Key] = p.Value
	}
	return d
}

// SortedKeys returns keys ordered by UTF-16 code units, the same order
// property list writers use.
func (d Dict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units.
// Go's string comparison uses UTF-8 bytes, which orders supplementary
// characters differently.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// maxDepth bounds container nesting. The store format forbids cycles, and a
// self-referencing Array would otherwise recurse forever.
const maxDepth = 64

// Validate checks that v is a well-formed storable value.
//
// Null is accepted only at the top level. Containers may not hold nil
// elements, Null, or non-finite floats.
func Validate(v Value) error {
	if _, ok := v.(Null); ok {
		return nil
	}
	return validate(v, 0)
}

func validate(v Value, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("nesting deeper than %d levels (cycle?)", maxDepth)
	}
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("nil value")
	case Null:
		return fmt.Errorf("null is not allowed inside a container")
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite float %v", f)
		}
	case Array:
		for i, elem := range val {
			if err := validate(elem, depth+1); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
	case Dict:
		for _, k := range val.SortedKeys() {
			if err := validate(val[k], depth+1); err != nil {
				return fmt.Errorf("dict[%q]: %w", k, err)
			}
		}
	}
	return nil
}

// Equal reports whether a and b hold the same value.
// Dates compare by instant, not by location.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool, Int, Float, String:
		return a == b
	case Date:
		bv, ok := b.(Date)
		return ok && av.Time().Equal(bv.Time())
	case Data:
		bv, ok := b.(Data)
		return ok && bytes.Equal(av, bv)
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Dict:
		bv, ok := b.(Dict)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	}
	return false
}

// Format renders v for humans. It is not a serialization format.
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case nil, Null:
		sb.WriteString("null")
	case Bool:
		fmt.Fprintf(sb, "%t", bool(val))
	case Int:
		fmt.Fprintf(sb, "%d", int64(val))
	case Float:
		sb.WriteString(formatFloat(float64(val)))
	case String:
		fmt.Fprintf(sb, "%q", string(val))
	case Date:
		sb.WriteString(val.Time().UTC().Format(time.RFC3339Nano))
	case Data:
		fmt.Fprintf(sb, "<%x>", []byte(val))
	case Array:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, elem)
		}
		sb.WriteByte(']')
	case Dict:
		sb.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%q: ", k)
			format(sb, val[k])
		}
		sb.WriteByte('}')
	}
}

// Clone returns a deep copy of v. Stores clone on the way in and out so
// callers never share Data, Array or Dict backing storage with them.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Data:
		if val == nil {
			return Data{}
		}
		return Data(append([]byte(nil), val...))
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Dict:
		out := make(Dict, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	}
	return v
}
