package store

import (
	"errors"
	"sync"

	"github.com/roach88/prefs/internal/plist"
)

// Store is the minimal key-value interface properties are built on.
type Store interface {
	// Get returns the value at key. ok is false when the key is absent.
	Get(key string) (v plist.Value, ok bool, err error)

	// Set replaces the value at key. v may be plist.Null.
	Set(key string, v plist.Value) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	// Keys returns all keys in ascending byte order.
	Keys() ([]string, error)
}

var (
	defaultMu    sync.RWMutex
	defaultStore Store = NewMemory()
)

// Default returns the process-wide store. It starts out as an empty Memory
// store and lives for the whole process.
func Default() Store {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultStore
}

// SetDefault replaces the process-wide store. Accessors capture the default
// when they are constructed, so call this during startup.
func SetDefault(s Store) {
	if s == nil {
		panic("store: SetDefault(nil)")
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = s
}

// Snapshot reads every key of a listable store.
func Snapshot(s Store) (map[string]plist.Value, error) {
	l, ok := s.(Lister)
	if !ok {
		return nil, errors.New("store does not support listing keys")
	}
	keys, err := l.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string]plist.Value, len(keys))
	for _, k := range keys {
		v, ok, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}
