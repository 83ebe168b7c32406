// Package tracking simulates order fulfilment and pushes state changes to
// customers. The Tracker owns per-order timing, the Monitor polls it.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/fsm"
)

// ErrOrderNotFound indicates the tracker has no state for an order.
var ErrOrderNotFound = errors.New("order not found")

// ErrInvalidTransition indicates the lifecycle does not allow the change.
var ErrInvalidTransition = errors.New("invalid order state transition")

// Mode controls how QueryState treats order IDs it has never seen.
type Mode string

const (
	ModeAutoCreate Mode = "auto-create"
	ModeStrict     Mode = "strict"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAutoCreate, ModeStrict:
		return Mode(s), nil
	case "":
		return ModeAutoCreate, nil
	}
	return "", fmt.Errorf("unknown order mode %q", s)
}

// Order is a paid order handed to the monitor.
type Order struct {
	ID            string
	Customer      string
	ProductID     string
	ProductName   string
	Restaurant    string
	Total         decimal.Decimal
	State         string
	PaymentMethod string
	CreatedAt     time.Time
	Notified      map[string]bool
}

// Status is what QueryState reports for one order.
type Status struct {
	OrderID           string
	State             string
	LastChange        time.Time
	EstimatedDelivery time.Time
}

type TrackerOptions struct {
	AdvanceAfter time.Duration
	ETA          time.Duration
	Mode         Mode
	Now          func() time.Time
}

type entry struct {
	state      string
	lastChange time.Time
}

// Tracker advances orders along the lifecycle as time passes. It is safe for
// concurrent use.
type Tracker struct {
	advanceAfter time.Duration
	eta          time.Duration
	mode         Mode
	now          func() time.Time

	sm      *fsm.OrderStateMachine
	entries *xsync.MapOf[string, entry]
}

func NewTracker(opts TrackerOptions) *Tracker {
	if opts.AdvanceAfter <= 0 {
		opts.AdvanceAfter = 20 * time.Second
	}
	if opts.ETA <= 0 {
		opts.ETA = 30 * time.Minute
	}
	if opts.Mode == "" {
		opts.Mode = ModeAutoCreate
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		advanceAfter: opts.AdvanceAfter,
		eta:          opts.ETA,
		mode:         opts.Mode,
		now:          opts.Now,
		sm:           fsm.NewOrderStateMachine(),
		entries:      xsync.NewMapOf[string, entry](),
	}
}

// Register seeds state for a freshly paid order. Registering an ID twice
// keeps the first entry.
func (t *Tracker) Register(order Order) {
	state := order.State
	if state == "" {
		state = fsm.OrderStateConfirming
	}
	t.entries.LoadOrStore(order.ID, entry{state: state, lastChange: t.now()})
}

// Forget drops state for an order.
func (t *Tracker) Forget(orderID string) {
	t.entries.Delete(orderID)
}

// Len reports how many orders the tracker holds.
func (t *Tracker) Len() int {
	return t.entries.Size()
}

// QueryState reports the current state of an order, moving it at most one
// step forward when it has sat in its state longer than the advancement
// threshold. Terminal orders never change.
func (t *Tracker) QueryState(ctx context.Context, orderID string) (Status, error) {
	now := t.now()
	var queryErr error

	e, _ := t.entries.Compute(orderID, func(old entry, loaded bool) (entry, bool) {
		if !loaded {
			if t.mode == ModeStrict {
				queryErr = fmt.Errorf("%s: %w", orderID, ErrOrderNotFound)
				return old, true
			}
			return entry{state: fsm.OrderStateConfirming, lastChange: now}, false
		}
		if fsm.IsTerminal(old.state) || now.Sub(old.lastChange) <= t.advanceAfter {
			return old, false
		}
		next, err := t.sm.Advance(ctx, old.state)
		if err != nil {
			queryErr = fmt.Errorf("advancing %s from %s: %w", orderID, old.state, ErrInvalidTransition)
			return old, false
		}
		return entry{state: next, lastChange: now}, false
	})
	if queryErr != nil {
		return Status{}, queryErr
	}

	return Status{
		OrderID:           orderID,
		State:             e.state,
		LastChange:        e.lastChange,
		EstimatedDelivery: now.Add(t.eta),
	}, nil
}

// Cancel forces a non-terminal order into the cancelled state.
func (t *Tracker) Cancel(ctx context.Context, orderID string) error {
	var cancelErr error
	t.entries.Compute(orderID, func(old entry, loaded bool) (entry, bool) {
		if !loaded {
			cancelErr = fmt.Errorf("%s: %w", orderID, ErrOrderNotFound)
			return old, true
		}
		next, err := t.sm.Transition(ctx, old.state, fsm.OrderEventCancel)
		if err != nil {
			cancelErr = fmt.Errorf("cancelling %s in state %s: %w", orderID, old.state, ErrInvalidTransition)
			return old, false
		}
		return entry{state: next, lastChange: t.now()}, false
	})
	return cancelErr
}
