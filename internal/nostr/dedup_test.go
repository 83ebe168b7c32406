package nostr

import (
	"testing"
	"time"
)

func TestDeduplicator_Seen(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	if d.Seen("abc") {
		t.Fatal("first sighting reported as duplicate")
	}
	if !d.Seen("abc") {
		t.Fatal("second sighting not reported as duplicate")
	}
	if d.Seen("def") {
		t.Fatal("distinct id reported as duplicate")
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestDeduplicator_Cleanup(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	d := NewDeduplicator(time.Minute)
	d.now = func() time.Time { return now }

	d.Seen("old")
	now = now.Add(45 * time.Second)
	d.Seen("new")
	now = now.Add(30 * time.Second)

	d.Cleanup()

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if d.Seen("old") {
		t.Error("expired id still remembered")
	}
	if !d.Seen("new") {
		t.Error("fresh id forgotten")
	}
}
