// Package execmon records every agent call with its timing and outcome.
package execmon

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildtall-systems/pidebot/internal/db"
)

type Store interface {
	InsertExecution(ctx context.Context, e db.Execution) error
	ExecutionStats(ctx context.Context, agent string, since time.Time) (db.ExecutionStats, error)
	ExecutionsByAgent(ctx context.Context, since time.Time) ([]db.AgentCount, error)
}

type AlertKind string

const (
	AlertSlowResponse AlertKind = "slow_response"
	AlertError        AlertKind = "execution_error"
)

type Alert struct {
	Kind      AlertKind
	Severity  string
	Message   string
	Execution db.Execution
}

type Options struct {
	MaxResponseTime time.Duration
	Now             func() time.Time
}

// Monitor wraps agent calls and persists an Execution for each.
type Monitor struct {
	store       Store
	maxResponse time.Duration
	now         func() time.Time

	mu        sync.RWMutex
	listeners []func(db.Execution)
	alerts    []func(Alert)
}

func New(store Store, opts Options) *Monitor {
	if opts.MaxResponseTime <= 0 {
		opts.MaxResponseTime = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{store: store, maxResponse: opts.MaxResponseTime, now: opts.Now}
}

// OnExecution registers fn to receive every completed execution.
func (m *Monitor) OnExecution(fn func(db.Execution)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// OnAlert registers fn to receive slow-response and error alerts.
func (m *Monitor) OnAlert(fn func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, fn)
}

// Track runs fn and records its outcome. The record is written on every
// exit path; a panic in fn is recorded as an error and then re-raised.
func (m *Monitor) Track(ctx context.Context, agent, kind string, inputSize int, fn func(context.Context) error) (err error) {
	start := m.now()
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		m.finish(ctx, agent, kind, inputSize, start, err)
		if r != nil {
			panic(r)
		}
	}()
	return fn(ctx)
}

// Do is Track for functions that return a value.
func Do[T any](ctx context.Context, m *Monitor, agent, kind string, inputSize int, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := m.Track(ctx, agent, kind, inputSize, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (m *Monitor) finish(ctx context.Context, agent, kind string, inputSize int, start time.Time, runErr error) {
	e := db.Execution{
		ID:        uuid.NewString(),
		Agent:     agent,
		Kind:      kind,
		InputSize: inputSize,
		StartedAt: start,
		Duration:  m.now().Sub(start),
		Status:    db.StatusSuccess,
	}
	if runErr != nil {
		e.Status = db.StatusError
		e.Error = runErr.Error()
	}

	// Record even when the caller's context is already done.
	if err := m.store.InsertExecution(context.WithoutCancel(ctx), e); err != nil {
		log.Printf("execmon: recording %s/%s: %v", agent, kind, err)
	}

	m.mu.RLock()
	listeners := append([]func(db.Execution){}, m.listeners...)
	alertFns := append([]func(Alert){}, m.alerts...)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(e)
	}
	for _, a := range m.check(e) {
		log.Printf("execmon: alert [%s] %s (%s)", a.Severity, a.Message, e.Agent)
		for _, fn := range alertFns {
			fn(a)
		}
	}
}

func (m *Monitor) check(e db.Execution) []Alert {
	var alerts []Alert
	if e.Duration > m.maxResponse {
		alerts = append(alerts, Alert{
			Kind:      AlertSlowResponse,
			Severity:  "warning",
			Message:   fmt.Sprintf("response took %s, limit %s", e.Duration.Round(time.Millisecond), m.maxResponse),
			Execution: e,
		})
	}
	if e.Status == db.StatusError {
		alerts = append(alerts, Alert{
			Kind:      AlertError,
			Severity:  "error",
			Message:   "execution failed: " + e.Error,
			Execution: e,
		})
	}
	return alerts
}
