// Package store provides the key-value stores that back typed properties.
//
// Every backend implements the same three operations:
//   - Get: the stored value, or ok=false when the key is absent
//   - Set: replace the value at a key
//   - Remove: delete a key; removing an absent key is not an error
//
// Backends:
//   - Memory: process-local map, the initial process-wide default
//   - SQLite: durable single-file store (one row per key)
//   - File: a human-editable YAML document, the closest analogue of a
//     property list file
//   - Dynamo: a DynamoDB table, one item per key
//
// # Critical Patterns
//
// Null is a storable marker. A store holding Null at a key is distinct from
// the key being absent, but readers in internal/property treat both the same.
//
// Values are cloned on the way in and out so callers never alias stored
// Data, Array or Dict contents.
//
// Stores serialize their own access. They add no ordering guarantees across
// processes: the last write wins.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// The SQLite and DynamoDB backends persist values in the canonical typed-JSON
// form from internal/plist.
package store
