package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sourcegraph/conc/panics"

	"github.com/buildtall-systems/pidebot/internal/fsm"
)

// ErrAlreadyWatched indicates the order is already in the active set.
var ErrAlreadyWatched = errors.New("order already watched")

// ErrMonitorStopped indicates Run has returned.
var ErrMonitorStopped = errors.New("monitor stopped")

// StatusSource is the part of the Tracker the monitor polls.
type StatusSource interface {
	QueryState(ctx context.Context, orderID string) (Status, error)
	Cancel(ctx context.Context, orderID string) error
	Forget(orderID string)
}

// Event reports that an order moved to a new state.
type Event struct {
	OrderID  string
	Customer string
	From     string
	To       string
	Message  string
	At       time.Time
}

// NotifyFunc delivers an event to the customer. A returned error leaves the
// order in its previous state so the next pass tries again.
type NotifyFunc func(ctx context.Context, ev Event) error

var stateMessages = map[string]string{
	fsm.OrderStateConfirming:      "Order %s received. The restaurant is confirming it.",
	fsm.OrderStatePreparing:       "Order %s is being prepared.",
	fsm.OrderStateCourierAssigned: "A courier has been assigned to order %s.",
	fsm.OrderStateEnRoute:         "Order %s is on its way!",
	fsm.OrderStateDelivered:       "Order %s was delivered. Enjoy your meal!",
	fsm.OrderStateCancelled:       "Order %s was cancelled.",
}

// StateMessage renders the customer-facing text for an order entering state.
func StateMessage(orderID, state string) string {
	if tmpl, ok := stateMessages[state]; ok {
		return fmt.Sprintf(tmpl, orderID)
	}
	return fmt.Sprintf("Order %s is now %s.", orderID, state)
}

type MonitorOptions struct {
	PollInterval time.Duration
	// BackoffBase and BackoffMax shape the extra delay after a pass in which
	// at least one order failed.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Notify      NotifyFunc
	EventBuffer int
}

// Snapshot is a point-in-time view of the monitor.
type Snapshot struct {
	Orders   []Order
	Running  bool
	Sessions int
	Passes   int
	Failures int
}

type watchReq struct {
	order Order
	reply chan error
}

type cancelReq struct {
	orderID string
	reply   chan error
}

// Monitor polls a StatusSource for every active order and reports changes.
// A single goroutine started by Run owns the active set; other goroutines
// talk to it through Watch, Cancel and Snapshot.
type Monitor struct {
	source   StatusSource
	interval time.Duration
	backBase time.Duration
	backMax  time.Duration
	notify   NotifyFunc

	watchCh  chan watchReq
	cancelCh chan cancelReq
	snapCh   chan chan Snapshot
	events   chan Event
	stopped  chan struct{}
}

func NewMonitor(source StatusSource, opts MonitorOptions) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = opts.PollInterval
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = 10 * opts.BackoffBase
	}
	if opts.Notify == nil {
		opts.Notify = func(context.Context, Event) error { return nil }
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	return &Monitor{
		source:   source,
		interval: opts.PollInterval,
		backBase: opts.BackoffBase,
		backMax:  opts.BackoffMax,
		notify:   opts.Notify,
		watchCh:  make(chan watchReq),
		cancelCh: make(chan cancelReq),
		snapCh:   make(chan chan Snapshot),
		events:   make(chan Event, opts.EventBuffer),
		stopped:  make(chan struct{}),
	}
}

// Events returns state changes as they are delivered. Events are dropped
// when the buffer is full.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Watch adds a paid order to the active set and arms polling if idle.
func (m *Monitor) Watch(ctx context.Context, order Order) error {
	req := watchReq{order: order, reply: make(chan error, 1)}
	select {
	case m.watchCh <- req:
	case <-m.stopped:
		return ErrMonitorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return m.await(ctx, req.reply)
}

// Cancel forces an active order into the cancelled state and notifies the
// customer without waiting for the next pass.
func (m *Monitor) Cancel(ctx context.Context, orderID string) error {
	req := cancelReq{orderID: orderID, reply: make(chan error, 1)}
	select {
	case m.cancelCh <- req:
	case <-m.stopped:
		return ErrMonitorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return m.await(ctx, req.reply)
}

func (m *Monitor) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case m.snapCh <- reply:
	case <-m.stopped:
		return Snapshot{}, ErrMonitorStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (m *Monitor) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the state owned by the Run goroutine.
type loop struct {
	active   map[string]*Order
	timer    *time.Timer
	backoff  retry.Backoff
	sessions int
	passes   int
	failures int
}

// Run serves requests and polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.stopped)

	l := &loop{active: make(map[string]*Order)}
	defer l.disarm()

	for {
		var tick <-chan time.Time
		if l.timer != nil {
			tick = l.timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-m.watchCh:
			req.reply <- m.watch(l, req.order)

		case req := <-m.cancelCh:
			req.reply <- m.cancel(ctx, l, req.orderID)

		case reply := <-m.snapCh:
			reply <- l.snapshot()

		case <-tick:
			l.timer = nil
			failed := m.pass(ctx, l)
			if len(l.active) == 0 {
				log.Printf("monitor: no active orders, poll task stopped after %d passes", l.passes)
				l.backoff = nil
				continue
			}
			l.arm(m.nextDelay(l, failed))
		}
	}
}

func (m *Monitor) watch(l *loop, order Order) error {
	if _, ok := l.active[order.ID]; ok {
		return fmt.Errorf("%s: %w", order.ID, ErrAlreadyWatched)
	}
	if order.State == "" {
		order.State = fsm.OrderStateConfirming
	}
	notified := make(map[string]bool, len(order.Notified)+1)
	for s, v := range order.Notified {
		notified[s] = v
	}
	// The confirmation reply covers the initial state.
	notified[order.State] = true
	order.Notified = notified
	l.active[order.ID] = &order

	if l.timer == nil {
		l.sessions++
		log.Printf("monitor: poll task armed (session %d)", l.sessions)
		l.arm(m.interval)
	}
	return nil
}

func (m *Monitor) cancel(ctx context.Context, l *loop, orderID string) error {
	o, ok := l.active[orderID]
	if !ok {
		return fmt.Errorf("%s: %w", orderID, ErrOrderNotFound)
	}
	if err := m.source.Cancel(ctx, orderID); err != nil {
		return err
	}
	if err := m.pollSafely(ctx, l, o); err != nil {
		log.Printf("monitor: order %s cancelled but notification failed: %v", orderID, err)
	}
	if len(l.active) == 0 {
		l.disarm()
	}
	return nil
}

// pass polls every active order once and reports whether any failed.
func (m *Monitor) pass(ctx context.Context, l *loop) bool {
	l.passes++

	ids := make([]string, 0, len(l.active))
	for id := range l.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	failed := false
	for _, id := range ids {
		if err := m.pollSafely(ctx, l, l.active[id]); err != nil {
			failed = true
			l.failures++
			log.Printf("monitor: polling order %s: %v", id, err)
		}
	}
	return failed
}

func (m *Monitor) pollSafely(ctx context.Context, l *loop, o *Order) error {
	var err error
	if r := panics.Try(func() { err = m.poll(ctx, l, o) }); r != nil {
		return r.AsError()
	}
	return err
}

func (m *Monitor) poll(ctx context.Context, l *loop, o *Order) error {
	st, err := m.source.QueryState(ctx, o.ID)
	if err != nil {
		return err
	}
	if st.State == o.State {
		return nil
	}

	ev := Event{
		OrderID:  o.ID,
		Customer: o.Customer,
		From:     o.State,
		To:       st.State,
		Message:  StateMessage(o.ID, st.State),
		At:       st.LastChange,
	}
	if !o.Notified[st.State] {
		if err := m.notify(ctx, ev); err != nil {
			return fmt.Errorf("notifying %s: %w", st.State, err)
		}
		o.Notified[st.State] = true
		m.emit(ev)
	}
	o.State = st.State

	if fsm.IsTerminal(o.State) {
		delete(l.active, o.ID)
		m.source.Forget(o.ID)
	}
	return nil
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		log.Printf("monitor: event buffer full, dropping %s -> %s for %s", ev.From, ev.To, ev.OrderID)
	}
}

func (m *Monitor) nextDelay(l *loop, failed bool) time.Duration {
	if !failed {
		l.backoff = nil
		return m.interval
	}
	if l.backoff == nil {
		l.backoff = retry.WithCappedDuration(m.backMax, retry.NewExponential(m.backBase))
	}
	extra, _ := l.backoff.Next()
	return m.interval + extra
}

func (l *loop) arm(d time.Duration) {
	l.timer = time.NewTimer(d)
}

func (l *loop) disarm() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *loop) snapshot() Snapshot {
	s := Snapshot{
		Orders:   make([]Order, 0, len(l.active)),
		Running:  l.timer != nil,
		Sessions: l.sessions,
		Passes:   l.passes,
		Failures: l.failures,
	}
	for _, o := range l.active {
		c := *o
		c.Notified = make(map[string]bool, len(o.Notified))
		for k, v := range o.Notified {
			c.Notified[k] = v
		}
		s.Orders = append(s.Orders, c)
	}
	sort.Slice(s.Orders, func(i, j int) bool { return s.Orders[i].ID < s.Orders[j].ID })
	return s
}
