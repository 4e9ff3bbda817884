package models

import "time"

// Reservation is a committed (or attempted) run of reserved calendar rows.
type Reservation struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	StartDate   string    `json:"start_date"`
	Duration    int       `json:"duration"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Rows        []int     `json:"rows"`
	Status      string    `json:"status"` // pending, committed, partial
	RowsWritten int       `json:"rows_written"`
	LastError   *string   `json:"last_error"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewReservation builds a pending reservation from a complete session.
func NewReservation(s *Session, rows []int) *Reservation {
	return &Reservation{
		UserID:    s.UserID,
		StartDate: s.SelectedDate,
		Duration:  s.Days(),
		Name:      s.Name,
		Phone:     s.Phone,
		Address:   s.Address(),
		Rows:      rows,
		Status:    ReservationPending,
	}
}
