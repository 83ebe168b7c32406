package nostr

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Deduplicator drops event IDs already seen from another relay. Entries
// expire after ttl.
type Deduplicator struct {
	seen *xsync.MapOf[string, time.Time]
	ttl  time.Duration
	now  func() time.Time
}

func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		seen: xsync.NewMapOf[string, time.Time](),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Seen reports whether id was already recorded, recording it if not.
func (d *Deduplicator) Seen(id string) bool {
	_, loaded := d.seen.LoadOrStore(id, d.now())
	return loaded
}

// Len reports how many IDs are remembered.
func (d *Deduplicator) Len() int {
	return d.seen.Size()
}

// Cleanup removes entries older than ttl.
func (d *Deduplicator) Cleanup() {
	cutoff := d.now().Add(-d.ttl)
	d.seen.Range(func(id string, at time.Time) bool {
		if at.Before(cutoff) {
			d.seen.Delete(id)
		}
		return true
	})
}

// CleanupLoop runs Cleanup every interval until ctx is done.
func (d *Deduplicator) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Cleanup()
		}
	}
}
