package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robotrent/internal/config"
	"robotrent/internal/domain"
	"robotrent/internal/metrics"
	"robotrent/internal/models"

	"github.com/rs/zerolog"
)

// ConflictError names the first day of the requested range that is no longer free.
type ConflictError struct {
	Date string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("calendar date %s is not available", e.Date)
}

// ReservationService единственный, кто пишет в календарь.
type ReservationService struct {
	store       domain.CalendarStore
	locker      domain.RangeLocker
	journal     domain.ReservationJournal
	notifier    domain.NotificationSink
	adminChatID int64
	free        string
	reserved    string
	loc         *time.Location
	logger      *zerolog.Logger
}

func NewReservationService(
	store domain.CalendarStore,
	locker domain.RangeLocker,
	journal domain.ReservationJournal,
	notifier domain.NotificationSink,
	cfg config.CalendarConfig,
	adminChatID int64,
	loc *time.Location,
	logger *zerolog.Logger,
) *ReservationService {
	if loc == nil {
		loc = time.Local
	}
	free, reserved := cfg.FreeStatus, cfg.ReservedStatus
	if free == "" {
		free = models.StatusFree
	}
	if reserved == "" {
		reserved = models.StatusReserved
	}
	return &ReservationService{
		store:       store,
		locker:      locker,
		journal:     journal,
		notifier:    notifier,
		adminChatID: adminChatID,
		free:        free,
		reserved:    reserved,
		loc:         loc,
		logger:      logger,
	}
}

func rowLockKey(row int) string {
	return fmt.Sprintf("calendar:row:%d", row)
}

// Commit перепроверяет весь диапазон под блокировкой и записывает его.
// Ничего не пишется, если хотя бы один день уже занят.
func (s *ReservationService) Commit(ctx context.Context, session *models.Session) (*models.Reservation, error) {
	if !session.Complete() {
		return nil, models.ErrIncompleteSession
	}

	date := models.NormalizeDate(session.SelectedDate)
	days := session.Days()

	anchor, err := s.store.FindAnchorRow(ctx, date)
	if err != nil {
		if errors.Is(err, models.ErrSlotNotFound) {
			metrics.IncReservation("not_found", days)
			return nil, err
		}
		metrics.IncReservation("error", days)
		return nil, fmt.Errorf("find anchor row for %s: %w", date, err)
	}

	rows := make([]int, days)
	keys := make([]string, days)
	for i := range rows {
		rows[i] = anchor + i
		keys[i] = rowLockKey(rows[i])
	}

	release, err := s.locker.Lock(ctx, keys)
	if err != nil {
		metrics.IncReservation("lock_timeout", days)
		return nil, err
	}
	defer release()

	if err := s.recheck(ctx, date, rows); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.IncReservation("conflict", days)
		} else {
			metrics.IncReservation("error", days)
		}
		return nil, err
	}

	res := models.NewReservation(session, rows)
	res.StartDate = date
	if err := s.journal.BeginReservation(ctx, res); err != nil {
		metrics.IncReservation("error", days)
		return nil, fmt.Errorf("journal reservation: %w", err)
	}

	data := models.ReservationRow{
		Status:  s.reserved,
		Name:    session.Name,
		Phone:   session.Phone,
		Address: session.Address(),
	}
	for i, row := range rows {
		if err := s.store.WriteReservation(ctx, row, data); err != nil {
			s.markPartial(ctx, res, i, err)
			metrics.IncReservation("partial", days)
			return nil, fmt.Errorf("%w: %d of %d rows written: %w", models.ErrPartialCommit, i, len(rows), err)
		}
		res.RowsWritten = i + 1
	}

	res.Status = models.ReservationCommitted
	if err := s.journal.CompleteReservation(ctx, res.ID, res.RowsWritten); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", res.ID).Msg("failed to mark reservation committed")
	}
	metrics.IncReservation("committed", days)

	s.logger.Info().
		Int64("reservation_id", res.ID).
		Int64("user_id", session.UserID).
		Str("date", date).
		Int("days", days).
		Ints("rows", rows).
		Msg("Reservation committed")

	if err := s.notifier.Notify(ctx, s.adminChatID, ReservationNotice(res)); err != nil {
		s.logger.Warn().Err(err).Int64("reservation_id", res.ID).Msg("failed to notify admin")
	}

	return res, nil
}

// recheck читает каждую строку диапазона по порядку.
func (s *ReservationService) recheck(ctx context.Context, date string, rows []int) error {
	start, parseErr := models.ParseDate(date, s.loc)
	for i, row := range rows {
		slot, err := s.store.ReadSlot(ctx, row)
		if err != nil {
			return fmt.Errorf("read calendar row %d: %w", row, err)
		}
		if slot.IsFree(s.free) {
			continue
		}
		conflict := models.NormalizeDate(slot.Date)
		if conflict == "" {
			// строки за концом таблицы: дату считаем от якорной
			conflict = date
			if parseErr == nil {
				conflict = start.AddDate(0, 0, i).Format(models.DateLayout)
			}
		}
		return &ConflictError{Date: conflict}
	}
	return nil
}

func (s *ReservationService) markPartial(ctx context.Context, res *models.Reservation, written int, cause error) {
	res.Status = models.ReservationPartial
	res.RowsWritten = written
	msg := cause.Error()
	res.LastError = &msg

	s.logger.Error().
		Err(cause).
		Int64("reservation_id", res.ID).
		Str("date", res.StartDate).
		Int("rows_written", written).
		Ints("rows", res.Rows).
		Msg("Reservation partially written, calendar needs manual check")

	if err := s.journal.MarkPartial(ctx, res.ID, written, msg); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", res.ID).Msg("failed to mark reservation partial")
	}
}

// ReservationNotice is the admin chat summary of a committed reservation.
func ReservationNotice(res *models.Reservation) string {
	return fmt.Sprintf(
		"НОВЕ БРОНЮВАННЯ:\nДата: %s (%d доба/доб)\n%s\nТелефон: %s\nАдреса: %s",
		res.StartDate, res.Duration, res.Name, res.Phone, res.Address,
	)
}
