package property

import "github.com/roach88/prefs/internal/store"

// Option configures an accessor at construction.
type Option func(*config)

type config struct {
	store    store.Store
	readOnly bool
	label    string
}

// WithStore sets the backing store. Without it an accessor uses
// store.Default() as of construction time.
func WithStore(s store.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// ReadOnly makes writes through the accessor silent no-ops. RemoveFromStore
// still removes.
func ReadOnly() Option {
	return func(c *config) {
		c.readOnly = true
	}
}

// WithLabel names the accessor in errors and logs. Defaults to the key.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}
