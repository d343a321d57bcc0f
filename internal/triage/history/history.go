// Package history provides the bounded in-memory implementation of
// triage.History: a fixed-capacity, most-recent-first ring of traces.
// No persistence; scoped to process lifetime.
package history

import (
	"sync"

	"github.com/linnemanlabs/warden/internal/triage"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1000

// Ring holds the most recent traces. Capacity is fixed at construction;
// inserting beyond it silently evicts the oldest entry. Safe for concurrent
// use: inserts are serialized, reads take the shared lock.
type Ring struct {
	mu   sync.RWMutex
	buf  []*triage.Trace
	head int // index of the most recent entry
	size int
}

// New creates a ring with the given capacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]*triage.Trace, capacity)}
}

// Insert places a trace at the front. Never grows past capacity.
func (r *Ring) Insert(tr *triage.Trace) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.head] = tr
	if r.size < len(r.buf) {
		r.size++
	}
}

// Recent returns up to n traces, most recent first.
func (r *Ring) Recent(n int) []*triage.Trace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]*triage.Trace, n)
	for i := range n {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of traces currently held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}
