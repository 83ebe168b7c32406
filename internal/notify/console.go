package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/logrusorgru/aurora"

	"github.com/buildtall-systems/pidebot/internal/fsm"
)

// Console prints notifications to a terminal.
type Console struct {
	mu sync.Mutex
	w  io.Writer
	au aurora.Aurora
}

// NewConsole writes to w, with ANSI colors when color is set.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, au: aurora.NewAurora(color)}
}

func (c *Console) Notify(_ context.Context, n Notification) error {
	var state aurora.Value
	switch {
	case n.State == fsm.OrderStateCancelled:
		state = c.au.Red(n.State)
	case fsm.IsTerminal(n.State):
		state = c.au.Green(n.State)
	default:
		state = c.au.Yellow(n.State)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s [%s] %s\n",
		c.au.Gray(12, n.At.Format("15:04:05")),
		c.au.Bold(c.au.Cyan(n.OrderID)),
		state,
		n.Message,
	)
	return err
}
