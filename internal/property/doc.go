// Package property provides typed accessors over a store.Store.
//
// An accessor binds a key, a default and an optional initial value to a Go
// type. Four variants cover the optional and raw-representable axes:
//
//	Property[T]         T, falls back to a required default
//	Optional[T]         (T, bool), default may be absent
//	Raw[T, R]           enum-like T persisted as its raw value R
//	OptionalRaw[T, R]   both of the above
//
// Reads never fail because of what is stored: an absent key, a stored Null
// or a value that does not decode to T all yield the default. Errors are
// reserved for misuse (a deferred key that was never bound) and for store
// I/O.
//
// Every accessor also implements Manipulator, which resets a key to its
// initial value or removes it from the store.
//
// Accessors add no locking of their own. Use one accessor per key; stores
// serialize their own access.
package property
