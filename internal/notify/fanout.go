package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sourcegraph/conc/pool"
)

// Fanout delivers to every sink concurrently. Errors from required sinks are
// joined and returned, so the monitor retries the change on its next pass.
// Best-effort sinks only log their failures.
//
// A retried change only reaches the sinks that have not handled it yet.
type Fanout struct {
	required   []Sink
	bestEffort []Sink
	done       *xsync.MapOf[string, struct{}]
}

func NewFanout(required ...Sink) *Fanout {
	return &Fanout{required: required, done: xsync.NewMapOf[string, struct{}]()}
}

// AddRequired attaches a sink whose failures are returned to the caller.
func (f *Fanout) AddRequired(s Sink) {
	f.required = append(f.required, s)
}

// AddBestEffort attaches a sink whose failures must not cause a redelivery.
func (f *Fanout) AddBestEffort(s Sink) {
	f.bestEffort = append(f.bestEffort, s)
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int {
	return len(f.required) + len(f.bestEffort)
}

// Pending reports how many sink deliveries are held for a change that has
// not reached every required sink yet.
func (f *Fanout) Pending() int {
	return f.done.Size()
}

func (f *Fanout) Notify(ctx context.Context, n Notification) error {
	var keys []string
	p := pool.New().WithErrors().WithContext(ctx)
	for i, s := range f.required {
		key := deliveryKey(n, "required", i)
		keys = append(keys, key)
		if _, ok := f.done.Load(key); ok {
			continue
		}
		p.Go(func(ctx context.Context) error {
			if err := s.Notify(ctx, n); err != nil {
				return fmt.Errorf("sink %d: %w", i, err)
			}
			f.done.Store(key, struct{}{})
			return nil
		})
	}
	for i, s := range f.bestEffort {
		key := deliveryKey(n, "best-effort", i)
		keys = append(keys, key)
		if _, ok := f.done.Load(key); ok {
			continue
		}
		p.Go(func(ctx context.Context) error {
			if err := s.Notify(ctx, n); err != nil {
				log.Printf("best-effort notification for %s failed: %v", n.OrderID, err)
			}
			f.done.Store(key, struct{}{})
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	// Every sink has the change; the monitor will not send it again.
	for _, key := range keys {
		f.done.Delete(key)
	}
	return nil
}

func deliveryKey(n Notification, kind string, i int) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", n.OrderID, n.From, n.State, kind, i)
}
