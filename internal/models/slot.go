package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrSlotNotFound      = errors.New("calendar slot not found")
	ErrIncompleteSession = errors.New("booking draft is incomplete")
	ErrPartialCommit     = errors.New("reservation partially written")
	ErrLockTimeout       = errors.New("calendar rows are locked by another reservation")
)

// CalendarSlot is one row of the shared calendar sheet.
type CalendarSlot struct {
	Row    int    `json:"row"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// IsFree reports whether the slot status equals the free value after normalization.
func (s CalendarSlot) IsFree(free string) bool {
	return NormalizeStatus(s.Status) == NormalizeStatus(free)
}

// ReservationRow is what gets written into a reserved calendar row.
type ReservationRow struct {
	Status  string
	Name    string
	Phone   string
	Address string
}

// NormalizeStatus приводит статус к нижнему регистру без пробелов по краям.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// NormalizeDate renders D.M.YYYY, DD.MM.YYYY or YYYY-MM-DD as DD.MM.YYYY.
// Unparsable text is returned trimmed, verbatim.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, "2.1.2006", ISODateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateLayout)
		}
	}
	return raw
}

// ParseDate parses a canonical calendar date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, NormalizeDate(value), loc)
}
