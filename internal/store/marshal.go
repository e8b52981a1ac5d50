package store

import (
	"fmt"

	"github.com/roach88/prefs/internal/plist"
)

// marshalValue converts a value to its canonical TEXT form for storage.
// The kind is returned separately so it can be queried without parsing.
func marshalValue(v plist.Value) (kind string, text string, err error) {
	data, err := plist.MarshalText(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal value: %w", err)
	}
	return v.Kind().String(), string(data), nil
}

// unmarshalValue parses canonical TEXT back into a value and checks it
// against the recorded kind.
func unmarshalValue(kind, text string) (plist.Value, error) {
	v, err := plist.UnmarshalText([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	if kind != "" && v.Kind().String() != kind {
		return nil, fmt.Errorf("unmarshal value: stored kind %q but value is %s", kind, v.Kind())
	}
	return v, nil
}
