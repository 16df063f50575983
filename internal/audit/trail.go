// Package audit provides an explicit diagnostics sink for analysis runs.
package audit

import (
	"sync"
	"time"
)

// Entry is one audited operation.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Operation string         `json:"operation"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details"`
}

// Sink receives audit entries. Implementations must be safe for concurrent use.
type Sink interface {
	Record(operation, source string, details map[string]any)
}

// Discard is a Sink that drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(string, string, map[string]any) {}

// Trail collects entries in memory in record order.
type Trail struct {
	mu      sync.Mutex
	entries []Entry
	clock   func() time.Time
}

// NewTrail creates an empty trail using the wall clock.
func NewTrail() *Trail {
	return &Trail{clock: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock for deterministic timestamps.
func (t *Trail) WithClock(clock func() time.Time) *Trail {
	t.clock = clock
	return t
}

// Record appends an entry. Details are copied.
func (t *Trail) Record(operation, source string, details map[string]any) {
	copied := make(map[string]any, len(details))
	for k, v := range details {
		copied[k] = v
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{
		Timestamp: t.clock(),
		Operation: operation,
		Source:    source,
		Details:   copied,
	})
}

// Entries returns a snapshot of the recorded entries.
func (t *Trail) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

var _ Sink = (*Trail)(nil)
