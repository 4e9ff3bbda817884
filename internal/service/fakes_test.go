package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"robotrent/internal/models"
)

// fakeCalendar is an in-memory calendar sheet keyed by row number.
type fakeCalendar struct {
	mu       sync.Mutex
	rows     map[int]models.CalendarSlot
	written  map[int]models.ReservationRow
	listErr  error
	writeErr map[int]error
	writes   []int
}

func newFakeCalendar(startRow int, slots ...[2]string) *fakeCalendar {
	c := &fakeCalendar{
		rows:     make(map[int]models.CalendarSlot),
		written:  make(map[int]models.ReservationRow),
		writeErr: make(map[int]error),
	}
	for i, s := range slots {
		row := startRow + i
		c.rows[row] = models.CalendarSlot{Row: row, Date: s[0], Status: s[1]}
	}
	return c
}

func (c *fakeCalendar) ListSlots(ctx context.Context) ([]models.CalendarSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	rows := make([]int, 0, len(c.rows))
	for row := range c.rows {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	out := make([]models.CalendarSlot, 0, len(rows))
	for _, row := range rows {
		out = append(out, c.rows[row])
	}
	return out, nil
}

func (c *fakeCalendar) FindAnchorRow(ctx context.Context, date string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return 0, c.listErr
	}
	best := 0
	for row, s := range c.rows {
		if models.NormalizeDate(s.Date) == date && (best == 0 || row < best) {
			best = row
		}
	}
	if best == 0 {
		return 0, models.ErrSlotNotFound
	}
	return best, nil
}

func (c *fakeCalendar) ReadSlot(ctx context.Context, row int) (models.CalendarSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.rows[row]
	if !ok {
		return models.CalendarSlot{Row: row}, nil
	}
	return s, nil
}

func (c *fakeCalendar) WriteReservation(ctx context.Context, row int, data models.ReservationRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writeErr[row]; err != nil {
		return err
	}
	s := c.rows[row]
	s.Row = row
	s.Status = data.Status
	c.rows[row] = s
	c.written[row] = data
	c.writes = append(c.writes, row)
	return nil
}

func (c *fakeCalendar) status(row int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[row].Status
}

var errSheetsDown = errors.New("sheets unavailable")

type fakeJournal struct {
	mu       sync.Mutex
	nextID   int64
	records  map[int64]*models.Reservation
	beginErr error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{records: make(map[int64]*models.Reservation)}
}

func (j *fakeJournal) BeginReservation(ctx context.Context, r *models.Reservation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.beginErr != nil {
		return j.beginErr
	}
	j.nextID++
	r.ID = j.nextID
	cp := *r
	j.records[r.ID] = &cp
	return nil
}

func (j *fakeJournal) CompleteReservation(ctx context.Context, id int64, rowsWritten int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[id].Status = models.ReservationCommitted
	j.records[id].RowsWritten = rowsWritten
	return nil
}

func (j *fakeJournal) MarkPartial(ctx context.Context, id int64, rowsWritten int, cause string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[id].Status = models.ReservationPartial
	j.records[id].RowsWritten = rowsWritten
	j.records[id].LastError = &cause
	return nil
}

func (j *fakeJournal) ListReservations(ctx context.Context, since time.Time) ([]*models.Reservation, error) {
	return nil, nil
}

func (j *fakeJournal) ListIncomplete(ctx context.Context, olderThan time.Time) ([]*models.Reservation, error) {
	return nil, nil
}

func (j *fakeJournal) get(id int64) models.Reservation {
	j.mu.Lock()
	defer j.mu.Unlock()
	return *j.records[id]
}

type sentNotice struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *fakeNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{chatID: chatID, text: text})
	return nil
}

func (n *fakeNotifier) all() []sentNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotice(nil), n.sent...)
}
