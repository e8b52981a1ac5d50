package testutil

import "fmt"

// SequentialIDs generates predictable identifiers for tests in place of
// random UUIDs: prefix-1, prefix-2, ...
//
// Not safe for concurrent use.
type SequentialIDs struct {
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "test-id".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test-id"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequentialIDs) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
