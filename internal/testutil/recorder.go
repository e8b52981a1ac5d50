package testutil

import (
	"sync"

	"github.com/roach88/prefs/internal/plist"
	"github.com/roach88/prefs/internal/store"
)

// OpKind identifies a recorded store mutation.
type OpKind string

const (
	OpSet    OpKind = "set"
	OpRemove OpKind = "remove"
)

// Op is one recorded mutation. Seq starts at 1 and increases by one per
// mutation, so tests can assert exact ordering.
type Op struct {
	Seq   int64
	Kind  OpKind
	Key   string
	Value plist.Value // nil for OpRemove
}

// Recorder is a store.Store that keeps its data in a store.Memory and records
// every Set and Remove. Reads are not recorded.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	*store.Memory

	mu  sync.Mutex
	seq int64
	ops []Op

	// Fail, when non-nil, is returned by every operation instead of touching
	// the underlying store. Failed calls are not recorded.
	Fail error
}

var _ store.Store = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Memory: store.NewMemory()}
}

// Get reads from the underlying memory store.
func (r *Recorder) Get(key string) (plist.Value, bool, error) {
	if err := r.failure(); err != nil {
		return nil, false, err
	}
	return r.Memory.Get(key)
}

// Set records the mutation and stores v.
func (r *Recorder) Set(key string, v plist.Value) error {
	if err := r.failure(); err != nil {
		return err
	}
	if err := r.Memory.Set(key, v); err != nil {
		return err
	}
	r.record(OpSet, key, plist.Clone(v))
	return nil
}

// Remove records the mutation and deletes key.
func (r *Recorder) Remove(key string) error {
	if err := r.failure(); err != nil {
		return err
	}
	if err := r.Memory.Remove(key); err != nil {
		return err
	}
	r.record(OpRemove, key, nil)
	return nil
}

// Ops returns a copy of the recorded mutations in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Reset forgets recorded mutations and restarts Seq at 1. Stored data is
// kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
	r.seq = 0
}

func (r *Recorder) failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Fail
}

func (r *Recorder) record(kind OpKind, key string, v plist.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.ops = append(r.ops, Op{Seq: r.seq, Kind: kind, Key: key, Value: v})
}
