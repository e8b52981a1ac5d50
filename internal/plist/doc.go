// Package plist defines the value domain of the preference store.
//
// The store only holds "plist-compatible" values: strings, integers, floats,
// booleans, dates, byte buffers, and arrays or string-keyed dictionaries of
// those. This package contains the sealed Value type that models that domain,
// the classifier that decides which Go types may be stored, and the canonical
// text codec the persistent stores use.
//
// plist imports nothing internal. Every other package builds on it.
//
// Key design constraints:
//   - Value is sealed - only the variants in value.go implement it
//   - Null is a store-level marker only, it never appears inside a container
//   - Floats must be finite (NaN and ±Inf are not representable)
//   - Classification is static where possible: accessors are constrained by
//     Storable and RawRepresentable, so unsupported types fail to compile
package plist
