package db

import (
	"context"
	"fmt"
)

// TryProcess records a relay event as handled. It returns false when the
// event was already recorded, so events seen on several relays run once.
func (db *DB) TryProcess(ctx context.Context, eventID string, kind int, createdAt int64) (bool, error) {
	result, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_events (event_id, kind, created_at)
		VALUES (?, ?, ?)
	`, eventID, kind, createdAt)
	if err != nil {
		return false, fmt.Errorf("recording processed event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows == 1, nil
}

// GetHighWaterMark returns the newest event timestamp the bot has handled.
func (db *DB) GetHighWaterMark(ctx context.Context) (int64, error) {
	var hwm int64
	err := db.QueryRowContext(ctx, `SELECT high_water_mark FROM bot_state WHERE id = 1`).Scan(&hwm)
	if err != nil {
		return 0, fmt.Errorf("querying high water mark: %w", err)
	}
	return hwm, nil
}

// SetHighWaterMark raises the mark to ts. Lower values are ignored.
func (db *DB) SetHighWaterMark(ctx context.Context, ts int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE bot_state SET high_water_mark = ?
		WHERE id = 1 AND high_water_mark < ?
	`, ts, ts)
	if err != nil {
		return fmt.Errorf("setting high water mark: %w", err)
	}
	return nil
}
