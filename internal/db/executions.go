package db

import (
	"context"
	"fmt"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Execution is one recorded agent call.
type Execution struct {
	ID        string
	Agent     string
	Kind      string
	InputSize int
	StartedAt time.Time
	Duration  time.Duration
	Status    string
	Error     string
}

// ExecutionStats aggregates executions. Durations are zero when Total is 0.
type ExecutionStats struct {
	Total       int
	Succeeded   int
	Failed      int
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
}

// AgentCount is the number of executions recorded for an agent.
type AgentCount struct {
	Agent string
	Count int
}

func (db *DB) InsertExecution(ctx context.Context, e Execution) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO executions (id, agent, kind, input_size, started_at, duration_ms, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Agent, e.Kind, e.InputSize, e.StartedAt.UnixMilli(), e.Duration.Milliseconds(), e.Status, e.Error)
	if err != nil {
		return fmt.Errorf("inserting execution: %w", err)
	}
	return nil
}

// ListExecutions returns executions started at or after since, newest first.
// An empty agent matches every agent.
func (db *DB) ListExecutions(ctx context.Context, agent string, since time.Time, limit int) ([]Execution, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, agent, kind, input_size, started_at, duration_ms, status, error
		FROM executions
		WHERE (? = '' OR agent = ?) AND started_at >= ?
		ORDER BY started_at DESC, id
		LIMIT ?
	`, agent, agent, since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Execution
	for rows.Next() {
		var e Execution
		var startedMs, durationMs int64
		if err := rows.Scan(&e.ID, &e.Agent, &e.Kind, &e.InputSize, &startedMs, &durationMs, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating executions: %w", err)
	}
	return out, nil
}

// ExecutionStats aggregates executions for agent (all agents when empty)
// started at or after since.
func (db *DB) ExecutionStats(ctx context.Context, agent string, since time.Time) (ExecutionStats, error) {
	var s ExecutionStats
	var avg float64
	var minMs, maxMs int64
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_ms), 0),
		       COALESCE(MIN(duration_ms), 0),
		       COALESCE(MAX(duration_ms), 0)
		FROM executions
		WHERE (? = '' OR agent = ?) AND started_at >= ?
	`, agent, agent, since.UnixMilli()).Scan(&s.Total, &s.Succeeded, &s.Failed, &avg, &minMs, &maxMs)
	if err != nil {
		return ExecutionStats{}, fmt.Errorf("querying execution stats: %w", err)
	}
	s.AvgDuration = time.Duration(avg * float64(time.Millisecond))
	s.MinDuration = time.Duration(minMs) * time.Millisecond
	s.MaxDuration = time.Duration(maxMs) * time.Millisecond
	return s, nil
}

// ExecutionsByAgent counts executions per agent since a point in time, busiest
// first.
func (db *DB) ExecutionsByAgent(ctx context.Context, since time.Time) ([]AgentCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT agent, COUNT(*) AS n FROM executions
		WHERE started_at >= ?
		GROUP BY agent
		ORDER BY n DESC, agent
	`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("querying executions by agent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AgentCount
	for rows.Next() {
		var c AgentCount
		if err := rows.Scan(&c.Agent, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning agent count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agent counts: %w", err)
	}
	return out, nil
}
