package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/buildtall-systems/pidebot/internal/fsm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupTracker(t *testing.T, mode Mode) (*Tracker, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	tr := NewTracker(TrackerOptions{
		AdvanceAfter: 20 * time.Second,
		ETA:          30 * time.Minute,
		Mode:         mode,
		Now:          clock.Now,
	})
	return tr, clock
}

func TestTracker_FirstQueryInitializes(t *testing.T) {
	tr, clock := setupTracker(t, ModeAutoCreate)
	ctx := context.Background()

	st, err := tr.QueryState(ctx, "ORD-1")
	if err != nil {
		t.Fatalf("QueryState: %v", err)
	}
	if st.State != fsm.OrderStateConfirming {
		t.Errorf("state = %s, want confirming", st.State)
	}
	if !st.LastChange.Equal(clock.Now()) {
		t.Errorf("last change = %v, want %v", st.LastChange, clock.Now())
	}
	if want := clock.Now().Add(30 * time.Minute); !st.EstimatedDelivery.Equal(want) {
		t.Errorf("eta = %v, want %v", st.EstimatedDelivery, want)
	}
}

func TestTracker_IdempotentWithinThreshold(t *testing.T) {
	tr, clock := setupTracker(t, ModeAutoCreate)
	ctx := context.Background()

	first, _ := tr.QueryState(ctx, "ORD-1")
	for i := 0; i < 5; i++ {
		clock.Advance(4 * time.Second)
		st, err := tr.QueryState(ctx, "ORD-1")
		if err != nil {
			t.Fatalf("QueryState: %v", err)
		}
		if st.State != first.State || !st.LastChange.Equal(first.LastChange) {
			t.Fatalf("query %d changed state: %+v", i, st)
		}
	}
}

func TestTracker_AdvancesOneStepPerQuery(t *testing.T) {
	tr, clock := setupTracker(t, ModeAutoCreate)
	ctx := context.Background()

	_, _ = tr.QueryState(ctx, "ORD-1")
	for i := 1; i < len(fsm.OrderSequence); i++ {
		// Far past the threshold still moves only one step.
		clock.Advance(10 * time.Minute)
		st, err := tr.QueryState(ctx, "ORD-1")
		if err != nil {
			t.Fatalf("QueryState: %v", err)
		}
		if st.State != fsm.OrderSequence[i] {
			t.Fatalf("step %d: state = %s, want %s", i, st.State, fsm.OrderSequence[i])
		}
		if !st.LastChange.Equal(clock.Now()) {
			t.Errorf("step %d: last change not reset", i)
		}
	}
}

func TestTracker_ThresholdIsExclusive(t *testing.T) {
	tr, clock := setupTracker(t, ModeAutoCreate)
	ctx := context.Background()

	_, _ = tr.QueryState(ctx, "ORD-1")
	clock.Advance(20 * time.Second)
	st, _ := tr.QueryState(ctx, "ORD-1")
	if st.State != fsm.OrderStateConfirming {
		t.Errorf("elapsed equal to threshold advanced to %s", st.State)
	}
	clock.Advance(time.Millisecond)
	st, _ = tr.QueryState(ctx, "ORD-1")
	if st.State != fsm.OrderStatePreparing {
		t.Errorf("state = %s, want preparing", st.State)
	}
}

func TestTracker_TerminalNeverChanges(t *testing.T) {
	tr, clock := setupTracker(t, ModeAutoCreate)
	ctx := context.Background()

	tr.Register(Order{ID: "ORD-1", State: fsm.OrderStateEnRoute})
	clock.Advance(time.Minute)
	st, _ := tr.QueryState(ctx, "ORD-1")
	if st.State != fsm.OrderStateDelivered {
		t.Fatalf("state = %s, want delivered", st.State)
	}
	delivered := st.LastChange

	for i := 0; i < 3; i++ {
		clock.Advance(time.Hour)
		st, err := tr.QueryState(ctx, "ORD-1")
		if err != nil {
			t.Fatalf("QueryState: %v", err)
		}
		if st.State != fsm.OrderStateDelivered || !st.LastChange.Equal(delivered) {
			t.Fatalf("terminal order mutated: %+v", st)
		}
	}
}

func TestTracker_StrictMode(t *testing.T) {
	tr, _ := setupTracker(t, ModeStrict)
	ctx := context.Background()

	_, err := tr.QueryState(ctx, "ORD-missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
	if tr.Len() != 0 {
		t.Errorf("strict query created state")
	}

	tr.Register(Order{ID: "ORD-1"})
	if _, err := tr.QueryState(ctx, "ORD-1"); err != nil {
		t.Errorf("registered order: %v", err)
	}
}

func TestTracker_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		wantErr error
	}{
		{"confirming", fsm.OrderStateConfirming, nil},
		{"en_route", fsm.OrderStateEnRoute, nil},
		{"delivered", fsm.OrderStateDelivered, ErrInvalidTransition},
		{"cancelled", fsm.OrderStateCancelled, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := setupTracker(t, ModeAutoCreate)
			ctx := context.Background()
			tr.Register(Order{ID: "ORD-1", State: tt.state})

			err := tr.Cancel(ctx, "ORD-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			st, _ := tr.QueryState(ctx, "ORD-1")
			want := fsm.OrderStateCancelled
			if tt.wantErr != nil {
				want = tt.state
			}
			if st.State != want {
				t.Errorf("state = %s, want %s", st.State, want)
			}
		})
	}
}

func TestTracker_CancelUnknown(t *testing.T) {
	tr, _ := setupTracker(t, ModeAutoCreate)
	if err := tr.Cancel(context.Background(), "nope"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
	if tr.Len() != 0 {
		t.Errorf("cancel of unknown order created state")
	}
}

func TestTracker_RegisterKeepsFirst(t *testing.T) {
	tr, _ := setupTracker(t, ModeAutoCreate)
	tr.Register(Order{ID: "ORD-1", State: fsm.OrderStatePreparing})
	tr.Register(Order{ID: "ORD-1", State: fsm.OrderStateConfirming})

	st, _ := tr.QueryState(context.Background(), "ORD-1")
	if st.State != fsm.OrderStatePreparing {
		t.Errorf("state = %s, want preparing", st.State)
	}

	tr.Forget("ORD-1")
	if tr.Len() != 0 {
		t.Errorf("Forget left %d entries", tr.Len())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAutoCreate, false},
		{"auto-create", ModeAutoCreate, false},
		{"strict", ModeStrict, false},
		{"lenient", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTracker_ConcurrentQueries(t *testing.T) {
	tr, clock := setupTracker(t, ModeAutoCreate)
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			if _, err := tr.QueryState(ctx, "ORD-1"); err != nil {
				t.Errorf("QueryState: %v", err)
			}
		}()
	}
	wg.Wait()

	st, _ := tr.QueryState(ctx, "ORD-1")
	if fsm.IsTerminal(st.State) && st.State != fsm.OrderStateDelivered {
		t.Errorf("unexpected state %s", st.State)
	}
}
