package service

import (
	"context"
	"fmt"
	"time"

	"robotrent/internal/config"
	"robotrent/internal/domain"
	"robotrent/internal/models"
)

// AvailabilityService строит недельное окно дат для шага выбора даты.
type AvailabilityService struct {
	store  domain.CalendarStore
	free   string
	cutoff time.Duration
	days   int
	loc    *time.Location
}

func NewAvailabilityService(store domain.CalendarStore, cfg config.CalendarConfig, loc *time.Location) *AvailabilityService {
	if loc == nil {
		loc = time.Local
	}
	days := cfg.WindowDays
	if days <= 0 {
		days = models.DefaultWindowDays
	}
	free := cfg.FreeStatus
	if free == "" {
		free = models.StatusFree
	}
	return &AvailabilityService{
		store:  store,
		free:   free,
		cutoff: cfg.Cutoff,
		days:   days,
		loc:    loc,
	}
}

// WeekWindow returns the days starting at Monday of now's week, shifted by
// offset whole weeks. Every returned time is local midnight in now's location.
func WeekWindow(now time.Time, offset, days int) []time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sinceMonday := (int(midnight.Weekday()) + 6) % 7
	monday := midnight.AddDate(0, 0, -sinceMonday+7*offset)

	window := make([]time.Time, days)
	for i := range window {
		window[i] = monday.AddDate(0, 0, i)
	}
	return window
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// RenderWeek reads the calendar once and marks each day of the window.
func (s *AvailabilityService) RenderWeek(ctx context.Context, weekOffset int, now time.Time) ([]models.DayOption, error) {
	slots, err := s.store.ListSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list calendar slots: %w", err)
	}

	// при дублях побеждает последняя строка
	statuses := make(map[string]string, len(slots))
	for _, slot := range slots {
		statuses[models.NormalizeDate(slot.Date)] = slot.Status
	}

	now = now.In(s.loc)
	today := now.Format(models.DateLayout)
	pastCutoff := timeOfDay(now) > s.cutoff

	window := WeekWindow(now, weekOffset, s.days)
	options := make([]models.DayOption, 0, len(window))
	for _, day := range window {
		key := day.Format(models.DateLayout)
		status, ok := statuses[key]
		enabled := ok && models.NormalizeStatus(status) == models.NormalizeStatus(s.free)
		if key == today && pastCutoff {
			enabled = false
		}
		options = append(options, models.DayOption{Date: day, Label: key, Enabled: enabled})
	}
	return options, nil
}
