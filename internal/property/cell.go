package property

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/roach88/prefs/internal/key"
	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/store"
)

// cell is the untyped part shared by every accessor variant: key, store,
// write policy and the encoded initial value.
type cell struct {
	key      key.Key
	store    store.Store
	readOnly bool
	label    string

	// initial is nil when no initial value was captured.
	initial plist.Value
}

func newCell(k key.Key, opts []Option) cell {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = store.Default()
	}
	return cell{
		key:      k,
		store:    cfg.store,
		readOnly: cfg.readOnly,
		label:    cfg.label,
	}
}

// Key returns a copy of the accessor's key.
func (c *cell) Key() key.Key {
	return c.key
}

// IsReadOnly reports whether writes are suppressed.
func (c *cell) IsReadOnly() bool {
	return c.readOnly
}

// Bind fixes a deferred key. On the transition from deferred to fixed, a
// captured initial value is written.
func (c *cell) Bind(name string) error {
	wasBound := c.key.IsBound()
	if err := c.key.Bind(name); err != nil {
		return fmt.Errorf("bind %s: %w", c.describe(), err)
	}
	if wasBound || !c.key.IsBound() || c.initial == nil {
		return nil
	}
	return c.write(c.initial)
}

// ResetToInitial writes the initial value back, or removes the key when no
// initial value was captured. A deferred key is left alone.
func (c *cell) ResetToInitial() error {
	if !c.key.IsBound() {
		return nil
	}
	if c.initial == nil {
		return c.RemoveFromStore()
	}
	return c.write(c.initial)
}

// RemoveFromStore deletes the key regardless of ReadOnly. A deferred key is
// left alone.
func (c *cell) RemoveFromStore() error {
	name, err := c.key.Resolve()
	if err != nil {
		return nil
	}
	if err := c.store.Remove(name); err != nil {
		return fmt.Errorf("property %s: remove: %w", c.describe(), err)
	}
	slog.Debug("property removed", "key", name)
	return nil
}

func (c *cell) describe() string {
	if c.label != "" {
		return c.label
	}
	return c.key.String()
}

func (c *cell) resolve() (string, error) {
	name, err := c.key.Resolve()
	if err != nil {
		return "", &key.NotBoundError{Label: c.label}
	}
	return name, nil
}

// load reads the stored value. ok is false when the key is absent or holds
// Null.
func (c *cell) load() (plist.Value, bool, error) {
	name, err := c.resolve()
	if err != nil {
		return nil, false, err
	}
	v, ok, err := c.store.Get(name)
	if err != nil {
		return nil, false, fmt.Errorf("property %s: get: %w", c.describe(), err)
	}
	if !ok {
		return nil, false, nil
	}
	if _, isNull := v.(plist.Null); isNull {
		return nil, false, nil
	}
	return v, true, nil
}

func (c *cell) write(v plist.Value) error {
	name, err := c.resolve()
	if err != nil {
		return err
	}
	if c.readOnly {
		slog.Debug("write suppressed on read-only property", "key", name)
		return nil
	}
	if err := c.store.Set(name, v); err != nil {
		return fmt.Errorf("property %s: set: %w", c.describe(), err)
	}
	return nil
}

// clear removes the key as a write: it needs a bound key and honors
// ReadOnly.
func (c *cell) clear() error {
	name, err := c.resolve()
	if err != nil {
		return err
	}
	if c.readOnly {
		slog.Debug("clear suppressed on read-only property", "key", name)
		return nil
	}
	if err := c.store.Remove(name); err != nil {
		return fmt.Errorf("property %s: clear: %w", c.describe(), err)
	}
	return nil
}

// setInitial captures v and writes it when the key is already bound.
func (c *cell) setInitial(v plist.Value) error {
	c.initial = v
	if !c.key.IsBound() {
		return nil
	}
	return c.write(v)
}

func (c *cell) logFallback(v plist.Value, want reflect.Type) {
	slog.Debug("stored value does not decode, using default",
		"key", c.key.String(),
		"kind", v.Kind().String(),
		"want", want.String(),
	)
}
