// Package notify delivers order status changes to customers and to
// downstream systems.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/buildtall-systems/pidebot/internal/tracking"
)

// Notification is one order state change addressed to a customer.
type Notification struct {
	OrderID  string    `json:"order_id"`
	Customer string    `json:"customer"`
	From     string    `json:"from,omitempty"`
	State    string    `json:"state"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Sink delivers notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// FromEvent converts a monitor event.
func FromEvent(ev tracking.Event) Notification {
	return Notification{
		OrderID:  ev.OrderID,
		Customer: ev.Customer,
		From:     ev.From,
		State:    ev.To,
		Message:  ev.Message,
		At:       ev.At,
	}
}

// MonitorFunc adapts s to the monitor's callback.
func MonitorFunc(s Sink) tracking.NotifyFunc {
	return func(ctx context.Context, ev tracking.Event) error {
		return s.Notify(ctx, FromEvent(ev))
	}
}

// ErrNoRecipient indicates a notification without a customer address.
var ErrNoRecipient = errors.New("notification has no recipient")
