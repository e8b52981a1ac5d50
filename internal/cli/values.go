package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/roach88/prefs/internal/plist"
)

// valueTypes are the accepted --type values of the set command.
var valueTypes = []string{"string", "int", "float", "bool", "date", "data", "null", "json"}

// parseValue converts command-line text into a plist value of the given type.
// "json" takes the canonical typed-JSON form and is the only way to enter
// arrays and dicts.
func parseValue(typ, text string) (plist.Value, error) {
	var v plist.Value
	switch typ {
	case "string":
		v = plist.String(text)
	case "int":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int %q: %w", text, err)
		}
		v = plist.Int(n)
	case "float":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", text, err)
		}
		v = plist.Float(f)
	case "bool":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("parse bool %q: %w", text, err)
		}
		v = plist.Bool(b)
	case "date":
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", text, err)
		}
		v = plist.NewDate(t)
	case "data":
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("parse base64 data: %w", err)
		}
		v = plist.Data(b)
	case "null":
		v = plist.Null{}
	case "json":
		parsed, err := plist.UnmarshalText([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("parse typed JSON: %w", err)
		}
		v = parsed
	default:
		return nil, fmt.Errorf("unknown type %q: must be one of %v", typ, valueTypes)
	}
	if err := plist.Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

// entry is one key/value pair in command output. Value is the canonical
// typed-JSON form so JSON consumers get kinds without guessing.
type entry struct {
	Key   string          `json:"key"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`

	display string
}

func newEntry(key string, v plist.Value) (entry, error) {
	text, err := plist.MarshalText(v)
	if err != nil {
		return entry{}, fmt.Errorf("encode %q: %w", key, err)
	}
	return entry{
		Key:     key,
		Kind:    v.Kind().String(),
		Value:   text,
		display: plist.Format(v),
	}, nil
}

func (e entry) renderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, e.display)
	return err
}

type entryList []entry

func (l entryList) renderText(w io.Writer) error {
	for _, e := range l {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, e.Kind, e.display); err != nil {
			return err
		}
	}
	return nil
}
