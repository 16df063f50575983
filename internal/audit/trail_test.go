package audit

import (
	"sync"
	"testing"
	"time"
)

func TestTrail_RecordOrderAndClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	trail := NewTrail().WithClock(func() time.Time { return fixed })

	trail.Record("LOAD_SERIES", "csv", map[string]any{"records": 10})
	trail.Record("CSD_ANALYSIS", "engine", map[string]any{"status": "NORMAL"})

	entries := trail.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != "LOAD_SERIES" || entries[1].Operation != "CSD_ANALYSIS" {
		t.Errorf("unexpected order: %s, %s", entries[0].Operation, entries[1].Operation)
	}
	if !entries[0].Timestamp.Equal(fixed) {
		t.Errorf("expected fixed timestamp, got %v", entries[0].Timestamp)
	}
}

func TestTrail_DetailsAreCopied(t *testing.T) {
	trail := NewTrail()
	details := map[string]any{"status": "OK"}
	trail.Record("OP", "src", details)
	details["status"] = "MUTATED"

	if got := trail.Entries()[0].Details["status"]; got != "OK" {
		t.Errorf("expected copied details, got %v", got)
	}
}

func TestTrail_ConcurrentRecord(t *testing.T) {
	trail := NewTrail()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trail.Record("OP", "src", nil)
		}()
	}
	wg.Wait()

	if n := len(trail.Entries()); n != 50 {
		t.Errorf("expected 50 entries, got %d", n)
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic.
	Discard.Record("OP", "src", map[string]any{"k": 1})
}
