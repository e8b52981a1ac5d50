// Package manifest loads default preference values from CUE and seeds them
// into a store.
//
// A manifest is a CUE file (or a directory of CUE files forming one
// instance) with a top-level "defaults" struct:
//
//	defaults: {
//		language: "fi"
//		"ui.scale": 1.25
//		tags: ["a", "b"]
//		limits: {daily: 10}
//		token: 'raw bytes'
//		since: "2024-01-01T00:00:00Z" @prefs(date)
//	}
//
// CUE types map onto plist kinds directly. Strings tagged @prefs(date) are
// parsed as RFC 3339 dates. null is only accepted for a top-level entry.
package manifest

import (
	"fmt"
	"os"
	"slices"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/store"
)

// Manifest is a set of default entries keyed by store key.
type Manifest struct {
	Source  string
	Entries map[string]plist.Value
}

// Error carries the CUE source position of a manifest problem.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a manifest from a .cue file or a directory holding one CUE
// instance.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		return Parse(path, src)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, fmt.Errorf("load manifest %s: no CUE instances", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", path, inst.Err)
	}
	return fromValue(path, ctx.BuildInstance(inst))
}

// Parse compiles CUE source. filename is used in error positions.
func Parse(filename string, src []byte) (*Manifest, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return fromValue(filename, v)
}

func fromValue(source string, root cue.Value) (*Manifest, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	defaults := root.LookupPath(cue.ParsePath("defaults"))
	if !defaults.Exists() {
		return nil, &Error{Field: "defaults", Message: "defaults struct is required", Pos: root.Pos()}
	}
	if err := defaults.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := defaults.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{Source: source, Entries: map[string]plist.Value{}}
	for iter.Next() {
		name := iter.Label()
		v, err := convert(name, iter.Value(), true)
		if err != nil {
			return nil, err
		}
		m.Entries[name] = v
	}
	return m, nil
}

func convert(field string, v cue.Value, top bool) (plist.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		if !top {
			return nil, &Error{Field: field, Message: "null is only allowed for a top-level entry", Pos: v.Pos()}
		}
		return plist.Null{}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return plist.Bool(b), nil

	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &Error{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return plist.Int(n), nil

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, &Error{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return plist.Float(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if isDate(v) {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, &Error{Field: field, Message: fmt.Sprintf("invalid date: %v", err), Pos: v.Pos()}
			}
			return plist.Date(t), nil
		}
		return plist.String(s), nil

	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return plist.Data(b), nil

	case cue.ListKind:
		items, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := plist.Array{}
		for i := 0; items.Next(); i++ {
			elem, err := convert(fmt.Sprintf("%s[%d]", field, i), items.Value(), false)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.StructKind:
		fields, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		d := plist.Dict{}
		for fields.Next() {
			elem, err := convert(field+"."+fields.Label(), fields.Value(), false)
			if err != nil {
				return nil, err
			}
			d[fields.Label()] = elem
		}
		return d, nil
	}
	return nil, &Error{Field: field, Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()), Pos: v.Pos()}
}

// isDate reports whether the field carries @prefs(date).
func isDate(v cue.Value) bool {
	attr := v.Attribute("prefs")
	if attr.Err() != nil {
		return false
	}
	arg, err := attr.String(0)
	return err == nil && arg == "date"
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &Error{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// Keys returns the entry keys in ascending order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SeedReport lists what Seed did per key.
type SeedReport struct {
	Written []string
	Skipped []string
}

// Seed writes every entry into s in key order. Without overwrite, keys that
// already exist in s are left alone.
func (m *Manifest) Seed(s store.Store, overwrite bool) (SeedReport, error) {
	report := SeedReport{Written: []string{}, Skipped: []string{}}
	for _, k := range m.Keys() {
		if !overwrite {
			_, exists, err := s.Get(k)
			if err != nil {
				return report, fmt.Errorf("seed %q: %w", k, err)
			}
			if exists {
				report.Skipped = append(report.Skipped, k)
				continue
			}
		}
		if err := s.Set(k, m.Entries[k]); err != nil {
			return report, fmt.Errorf("seed %q: %w", k, err)
		}
		report.Written = append(report.Written, k)
	}
	return report, nil
}
