package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"robotrent/internal/models"
)

const reservationColumns = `id, user_id, start_date, duration, name, phone, address, rows, status, rows_written, last_error, created_at, updated_at`

// BeginReservation пишет запись pending до первой записи в календарь.
func (db *DB) BeginReservation(ctx context.Context, r *models.Reservation) error {
	rows, err := json.Marshal(r.Rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	now := db.now().UTC()
	if r.Status == "" {
		r.Status = models.ReservationPending
	}

	query := `INSERT INTO reservations (user_id, start_date, duration, name, phone, address, rows, status, rows_written, last_error, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		r.UserID,
		r.StartDate,
		r.Duration,
		r.Name,
		r.Phone,
		r.Address,
		string(rows),
		r.Status,
		r.RowsWritten,
		r.LastError,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now

	return nil
}

func (db *DB) CompleteReservation(ctx context.Context, id int64, rowsWritten int) error {
	return db.updateStatus(ctx, id, models.ReservationCommitted, rowsWritten, nil)
}

// MarkPartial отмечает бронь, записанную в календарь не полностью.
func (db *DB) MarkPartial(ctx context.Context, id int64, rowsWritten int, cause string) error {
	return db.updateStatus(ctx, id, models.ReservationPartial, rowsWritten, &cause)
}

func (db *DB) updateStatus(ctx context.Context, id int64, status string, rowsWritten int, lastError *string) error {
	query := `UPDATE reservations SET status = ?, rows_written = ?, last_error = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, rowsWritten, lastError, db.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update reservation %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update reservation %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("reservation %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ListReservations возвращает записи журнала, созданные начиная с since.
func (db *DB) ListReservations(ctx context.Context, since time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE created_at >= ? ORDER BY created_at ASC, id ASC`
	return db.queryReservations(ctx, query, since.UTC())
}

// ListIncomplete возвращает pending и partial записи, не менявшиеся с olderThan.
func (db *DB) ListIncomplete(ctx context.Context, olderThan time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
              WHERE status IN (?, ?) AND updated_at <= ? ORDER BY created_at ASC, id ASC`
	return db.queryReservations(ctx, query, models.ReservationPending, models.ReservationPartial, olderThan.UTC())
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		var (
			r       models.Reservation
			rawRows string
		)
		err := rows.Scan(
			&r.ID, &r.UserID, &r.StartDate, &r.Duration, &r.Name, &r.Phone, &r.Address,
			&rawRows, &r.Status, &r.RowsWritten, &r.LastError, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		if err := json.Unmarshal([]byte(rawRows), &r.Rows); err != nil {
			return nil, fmt.Errorf("failed to decode rows of reservation %d: %w", r.ID, err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
