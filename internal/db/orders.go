package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrOrderNotFound indicates no history exists for an order or customer.
var ErrOrderNotFound = errors.New("order not found")

// OrderEvent is one line of an order's history.
type OrderEvent struct {
	ID        int64
	OrderID   string
	Customer  string
	FromState string
	ToState   string
	Detail    string
	CreatedAt time.Time
}

// RecordOrderEvent appends to an order's history. CreatedAt defaults to now.
func (db *DB) RecordOrderEvent(ctx context.Context, e OrderEvent) (*OrderEvent, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO order_events (order_id, customer, from_state, to_state, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.OrderID, e.Customer, e.FromState, e.ToState, e.Detail, e.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("recording order event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order event id: %w", err)
	}
	e.ID = id
	return &e, nil
}

// OrderHistory returns an order's events oldest first.
func (db *DB) OrderHistory(ctx context.Context, orderID string) ([]OrderEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, customer, from_state, to_state, detail, created_at
		FROM order_events WHERE order_id = ? ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []OrderEvent
	for rows.Next() {
		var e OrderEvent
		var createdMs int64
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Customer, &e.FromState, &e.ToState, &e.Detail, &createdMs); err != nil {
			return nil, fmt.Errorf("scanning order event: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMs)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order events: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrOrderNotFound
	}
	return events, nil
}

// LatestOrderID returns the most recently created order for a customer.
func (db *DB) LatestOrderID(ctx context.Context, customer string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		SELECT order_id FROM order_events
		WHERE customer = ? AND from_state = ''
		ORDER BY id DESC LIMIT 1
	`, customer).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying latest order: %w", err)
	}
	return id, nil
}

// CountOrdersByState counts orders by their latest recorded state.
func (db *DB) CountOrdersByState(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.to_state, COUNT(*)
		FROM order_events e
		JOIN (SELECT order_id, MAX(id) AS last_id FROM order_events GROUP BY order_id) latest
		  ON e.id = latest.last_id
		GROUP BY e.to_state
	`)
	if err != nil {
		return nil, fmt.Errorf("counting orders by state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scanning order count: %w", err)
		}
		counts[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order counts: %w", err)
	}
	return counts, nil
}
