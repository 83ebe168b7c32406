package app

import (
	"context"
	"fmt"
	"time"

	"github.com/buildtall-systems/pidebot/internal/execmon"
	"github.com/buildtall-systems/pidebot/internal/tracking"
)

// Stats is the operator view of the process.
type Stats struct {
	Executions     execmon.Overview
	OrdersByState  map[string]int
	Monitor        tracking.Snapshot
	MonitorRunning bool
}

// Stats gathers execution and order figures since the given time. The
// monitor snapshot is only taken while Run is active.
func (a *App) Stats(ctx context.Context, since time.Time) (Stats, error) {
	var s Stats
	var err error
	if s.Executions, err = a.Exec.Overview(ctx, since); err != nil {
		return Stats{}, fmt.Errorf("execution overview: %w", err)
	}
	if s.OrdersByState, err = a.DB.CountOrdersByState(ctx); err != nil {
		return Stats{}, fmt.Errorf("counting orders: %w", err)
	}
	if a.Running() {
		snapCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if s.Monitor, err = a.Monitor.Snapshot(snapCtx); err == nil {
			s.MonitorRunning = true
		}
	}
	return s, nil
}
