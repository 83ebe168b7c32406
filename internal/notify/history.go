package notify

import (
	"context"

	"github.com/buildtall-systems/pidebot/internal/db"
)

// EventRecorder appends to an order's history.
type EventRecorder interface {
	RecordOrderEvent(ctx context.Context, e db.OrderEvent) (*db.OrderEvent, error)
}

// History writes every state change to the order_events table, which is
// what tracking queries answer from once an order leaves the monitor.
type History struct {
	store EventRecorder
}

func NewHistory(store EventRecorder) *History {
	return &History{store: store}
}

func (h *History) Notify(ctx context.Context, n Notification) error {
	_, err := h.store.RecordOrderEvent(ctx, db.OrderEvent{
		OrderID:   n.OrderID,
		Customer:  n.Customer,
		FromState: n.From,
		ToState:   n.State,
		Detail:    n.Message,
		CreatedAt: n.At,
	})
	return err
}
