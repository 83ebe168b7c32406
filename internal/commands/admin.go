package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/tracking"
)

// StatsWindow is how far back the stats command looks.
const StatsWindow = 24 * time.Hour

func statusCmd(ctx context.Context, a *app.App, _ *Command, _ Sender) Result {
	if !a.Running() {
		return Result{Message: "Order monitor is not running.", Action: "status"}
	}
	snapCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	snap, err := a.Monitor.Snapshot(snapCtx)
	if err != nil {
		return Result{Error: fmt.Errorf("reading monitor: %w", err)}
	}
	return Result{Message: FormatSnapshot(snap), Action: "status"}
}

func statsCmd(ctx context.Context, a *app.App, _ *Command, _ Sender) Result {
	s, err := a.Stats(ctx, time.Now().Add(-StatsWindow))
	if err != nil {
		return Result{Error: err}
	}
	return Result{Message: FormatStats(s), Action: "stats"}
}

// FormatSnapshot renders the monitor's active set.
func FormatSnapshot(s tracking.Snapshot) string {
	var b strings.Builder
	poll := "idle"
	if s.Running {
		poll = "polling"
	}
	fmt.Fprintf(&b, "Monitor %s: %d active orders, %d passes, %d failures, %d sessions",
		poll, len(s.Orders), s.Passes, s.Failures, s.Sessions)
	for _, o := range s.Orders {
		fmt.Fprintf(&b, "\n• %s %s (%s, %s)", o.ID, o.State, o.ProductName, o.Customer)
	}
	return b.String()
}

// FormatStats renders Stats as plain text.
func FormatStats(s app.Stats) string {
	var b strings.Builder
	ex := s.Executions
	fmt.Fprintf(&b, "Executions: %d across %d agents, %.1f%% succeeded, avg %s",
		ex.Total, ex.UniqueAgents, ex.SuccessRate*100, ex.AvgDuration.Round(time.Millisecond))
	if ex.MostActive != "" {
		fmt.Fprintf(&b, "\nMost active: %s", ex.MostActive)
	}
	for _, ac := range ex.Agents {
		fmt.Fprintf(&b, "\n• %s: %d", ac.Agent, ac.Count)
	}

	states := make([]string, 0, len(s.OrdersByState))
	for st := range s.OrdersByState {
		states = append(states, st)
	}
	sort.Strings(states)
	b.WriteString("\nOrders by state:")
	if len(states) == 0 {
		b.WriteString(" none")
	}
	for _, st := range states {
		fmt.Fprintf(&b, "\n• %s: %d", st, s.OrdersByState[st])
	}

	if s.MonitorRunning {
		b.WriteString("\n" + FormatSnapshot(s.Monitor))
	}
	for _, r := range ex.Recommendations {
		fmt.Fprintf(&b, "\nNote: %s", r)
	}
	return b.String()
}
