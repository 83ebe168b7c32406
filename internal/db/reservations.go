package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrReservationNotFound indicates no reservation has the given code.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNoCapacity indicates the slot cannot seat the party.
var ErrNoCapacity = errors.New("not enough seats left")

type Reservation struct {
	ID           int64
	Customer     string
	RestaurantID string
	Date         string // YYYY-MM-DD
	Slot         string // HH:MM
	PartySize    int
	Requests     string
	CreatedAt    time.Time
}

// Code is the customer-facing confirmation id.
func (r Reservation) Code() string {
	return fmt.Sprintf("RES-%04d", r.ID)
}

// CreateReservation books a table if the restaurant still has room for the
// party in that slot. capacity is the restaurant's seat count. The check and
// the insert share a transaction.
func (db *DB) CreateReservation(ctx context.Context, r Reservation, capacity int) (*Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var booked int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(party_size), 0) FROM reservations
		WHERE restaurant_id = ? AND date = ? AND slot = ?
	`, r.RestaurantID, r.Date, r.Slot).Scan(&booked)
	if err != nil {
		return nil, fmt.Errorf("querying booked seats: %w", err)
	}
	if capacity-booked < r.PartySize {
		return nil, ErrNoCapacity
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (customer, restaurant_id, date, slot, party_size, requests)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Customer, r.RestaurantID, r.Date, r.Slot, r.PartySize, r.Requests)
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting reservation id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	r.ID = id
	r.CreatedAt = time.Now()
	return &r, nil
}

// BookedSeats sums party sizes already booked for a slot.
func (db *DB) BookedSeats(ctx context.Context, restaurantID, date, slot string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(party_size), 0) FROM reservations
		WHERE restaurant_id = ? AND date = ? AND slot = ?
	`, restaurantID, date, slot).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("querying booked seats: %w", err)
	}
	return n, nil
}

// GetReservation looks a reservation up by its RES-0001 style code.
func (db *DB) GetReservation(ctx context.Context, code string) (*Reservation, error) {
	var id int64
	if _, err := fmt.Sscanf(code, "RES-%d", &id); err != nil {
		return nil, ErrReservationNotFound
	}

	var r Reservation
	err := db.QueryRowContext(ctx, `
		SELECT id, customer, restaurant_id, date, slot, party_size, requests, created_at
		FROM reservations WHERE id = ?
	`, id).Scan(&r.ID, &r.Customer, &r.RestaurantID, &r.Date, &r.Slot, &r.PartySize, &r.Requests, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation: %w", err)
	}
	return &r, nil
}

// CustomerReservations lists a customer's bookings, newest first.
func (db *DB) CustomerReservations(ctx context.Context, customer string) ([]Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, customer, restaurant_id, date, slot, party_size, requests, created_at
		FROM reservations WHERE customer = ? ORDER BY id DESC
	`, customer)
	if err != nil {
		return nil, fmt.Errorf("querying reservations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.Customer, &r.RestaurantID, &r.Date, &r.Slot, &r.PartySize, &r.Requests, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservations: %w", err)
	}
	return out, nil
}
