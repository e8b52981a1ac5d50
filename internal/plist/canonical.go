package plist

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MarshalText produces the canonical typed-JSON form of v.
//
// Every value is a node {"type":<kind>,"value":<payload>}, so dates, byte
// buffers and integral floats survive the round trip. Output is deterministic:
//  1. Dict keys sorted by UTF-16 code units
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Dates in UTC, RFC 3339 with nanoseconds
//  4. Data as standard base64
//
// Strings are written as given; they are not normalized, so a value read
// back is byte-identical to the value written.
func MarshalText(v Value) ([]byte, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := marshalNode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalNode(buf *bytes.Buffer, v Value) error {
	if _, ok := v.(Null); ok {
		buf.WriteString(`{"type":"null"}`)
		return nil
	}

	buf.WriteString(`{"type":"`)
	buf.WriteString(v.Kind().String())
	buf.WriteString(`","value":`)

	switch val := v.(type) {
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		buf.WriteString(formatFloat(float64(val)))
	case String:
		if err := writeString(buf, string(val)); err != nil {
			return err
		}
	case Date:
		if err := writeString(buf, val.Time().UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	case Data:
		if err := writeString(buf, base64.StdEncoding.EncodeToString(val)); err != nil {
			return err
		}
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalNode(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Dict:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalNode(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}

	buf.WriteByte('}')
	return nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder adds a trailing newline, remove it
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// formatFloat renders f in the shortest form that parses back to the same
// float64.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

type wireNode struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalText parses the canonical typed-JSON form produced by MarshalText.
func UnmarshalText(data []byte) (Value, error) {
	v, err := unmarshalNode(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func unmarshalNode(data []byte) (Value, error) {
	var n wireNode
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}

	kind, err := ParseKind(n.Type)
	if err != nil {
		return nil, err
	}
	if kind == KindNull {
		return Null{}, nil
	}
	if len(n.Value) == 0 {
		return nil, fmt.Errorf("%s node has no value", kind)
	}

	switch kind {
	case KindBool:
		var b bool
		if err := json.Unmarshal(n.Value, &b); err != nil {
			return nil, fmt.Errorf("bool: %w", err)
		}
		return Bool(b), nil

	case KindInt:
		i, err := strconv.ParseInt(string(n.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int: %w", err)
		}
		return Int(i), nil

	case KindFloat:
		f, err := strconv.ParseFloat(string(n.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("float: %w", err)
		}
		return Float(f), nil

	case KindString:
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("string: %w", err)
		}
		return String(s), nil

	case KindDate:
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		return Date(t), nil

	case KindData:
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		return Data(b), nil

	case KindArray:
		var raw []json.RawMessage
		if err := json.Unmarshal(n.Value, &raw); err != nil {
			return nil, fmt.Errorf("array: %w", err)
		}
		arr := make(Array, len(raw))
		for i, elem := range raw {
			v, err := unmarshalNode(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case KindDict:
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(n.Value, &raw); err != nil {
			return nil, fmt.Errorf("dict: %w", err)
		}
		d := make(Dict, len(raw))
		for k, elem := range raw {
			v, err := unmarshalNode(elem)
			if err != nil {
				return nil, fmt.Errorf("dict[%q]: %w", k, err)
			}
			d[k] = v
		}
		return d, nil
	}

	return nil, fmt.Errorf("unhandled kind %s", kind)
}
