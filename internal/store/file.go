package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/prefs/internal/plist"
)

// File is a Store persisted as a YAML mapping, one top-level entry per key.
//
// The whole document is rewritten on every mutation (write to a temp file,
// then rename), so a crash never leaves a half-written file behind.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]plist.Value
}

// OpenFile loads the YAML document at path. A missing file is an empty store;
// it is created on the first write.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("open file store: empty path")
	}

	f := &File{path: path, data: map[string]plist.Value{}}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}

	data, err := DecodeYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("open file store %q: %w", path, err)
	}
	f.data = data
	return f, nil
}

// Get returns a copy of the value at key.
func (f *File) Get(key string) (plist.Value, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return plist.Clone(v), true, nil
}

// Set stores v and rewrites the file.
func (f *File) Set(key string, v plist.Value) error {
	if err := plist.Validate(v); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	f.data[key] = plist.Clone(v)
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key and rewrites the file. Removing an absent key does not
// touch the file.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.data[key] = prev
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Keys returns all keys in ascending order.
func (f *File) Keys() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// flush writes the document atomically. Caller holds f.mu.
func (f *File) flush() error {
	out, err := EncodeYAML(f.data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// EncodeYAML renders entries as a YAML mapping with sorted keys.
// Dates use the !!timestamp form and byte buffers the !!binary form, so the
// document decodes back to the same kinds.
func EncodeYAML(entries map[string]plist.Value) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		valNode, err := toYAMLNode(entries[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		doc.Content = append(doc.Content, strNode(k), valNode)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

// DecodeYAML parses a YAML mapping produced by EncodeYAML (or written by
// hand) into entries.
func DecodeYAML(data []byte) (map[string]plist.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	entries := map[string]plist.Value{}
	if doc.Kind == 0 {
		// Empty document
		return entries, nil
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return entries, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		k := root.Content[i].Value
		v, err := fromYAMLNode(root.Content[i+1], true)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		entries[k] = v
	}
	return entries, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func toYAMLNode(v plist.Value) (*yaml.Node, error) {
	switch val := v.(type) {
	case plist.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case plist.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(val))}, nil
	case plist.Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(val), 10)}, nil
	case plist.Float:
		s := strconv.FormatFloat(float64(val), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			// Keep the float kind: "2" would read back as an int
			s += ".0"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}, nil
	case plist.String:
		return strNode(string(val)), nil
	case plist.Date:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: val.Time().UTC().Format(time.RFC3339Nano)}, nil
	case plist.Data:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(val)}, nil
	case plist.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, elem := range val {
			child, err := toYAMLNode(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case plist.Dict:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range val.SortedKeys() {
			child, err := toYAMLNode(val[k])
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			n.Content = append(n.Content, strNode(k), child)
		}
		return n, nil
	}
	return nil, fmt.Errorf("unknown Value type: %T", v)
}

func fromYAMLNode(n *yaml.Node, top bool) (plist.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias, top)

	case yaml.SequenceNode:
		arr := make(plist.Array, 0, len(n.Content))
		for i, child := range n.Content {
			v, err := fromYAMLNode(child, false)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, v)
		}
		return arr, nil

	case yaml.MappingNode:
		d := make(plist.Dict, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			v, err := fromYAMLNode(n.Content[i+1], false)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			d[k] = v
		}
		return d, nil

	case yaml.ScalarNode:
		return fromYAMLScalar(n, top)
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func fromYAMLScalar(n *yaml.Node, top bool) (plist.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		if !top {
			return nil, fmt.Errorf("line %d: null is not allowed inside a container", n.Line)
		}
		return plist.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return plist.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return plist.Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: float: %w", n.Line, err)
		}
		return plist.Float(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return plist.Date(t), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("line %d: binary: %w", n.Line, err)
		}
		return plist.Data(b), nil
	case "!!str":
		return plist.String(n.Value), nil
	}
	return nil, fmt.Errorf("line %d: unsupported tag %s", n.Line, n.Tag)
}
