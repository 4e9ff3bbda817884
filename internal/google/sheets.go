package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"robotrent/internal/config"
	"robotrent/internal/metrics"
	"robotrent/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// contentColumns: колонки листа с текстами, значение во второй строке.
var contentColumns = map[models.ContentKey]string{
	models.ContentManual:  "A",
	models.ContentRules:   "B",
	models.ContentPayment: "C",
}

type cachedText struct {
	text      string
	expiresAt time.Time
}

// SheetsService is the calendar sheet and the content sheet of one spreadsheet.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	calendarSheet string
	contentSheet  string
	limiter       *rate.Limiter
	logger        *zerolog.Logger

	cacheTTL time.Duration
	cacheMu  sync.RWMutex
	cache    map[models.ContentKey]cachedText
	now      func() time.Time
}

func NewSheetsService(ctx context.Context, cfg config.GoogleConfig, logger *zerolog.Logger) (*SheetsService, error) {
	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	jwt, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	if email, err := ServiceAccountEmail(credentials); err == nil {
		logger.Info().Str("service_account", email).Msg("Google Sheets client ready")
	}

	return newSheetsService(srv, cfg, logger), nil
}

func newSheetsService(srv *sheets.Service, cfg config.GoogleConfig, logger *zerolog.Logger) *SheetsService {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &SheetsService{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		calendarSheet: cfg.CalendarSheet,
		contentSheet:  cfg.ContentSheet,
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		logger:        logger,
		cacheTTL:      time.Duration(models.ContentCacheTTL) * time.Second,
		cache:         make(map[models.ContentKey]cachedText),
		now:           time.Now,
	}
}

// getValues читает диапазон с учётом лимита запросов.
func (s *SheetsService) getValues(ctx context.Context, op, rng string) (*sheets.ValueRange, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	metrics.IncSheets(op, err)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	if _, err := s.getValues(ctx, "test_connection", s.calendarSheet+"!A1"); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// ListSlots returns every calendar row below the header, numbered from 2.
// Dates are normalized, statuses are returned as stored.
func (s *SheetsService) ListSlots(ctx context.Context) ([]models.CalendarSlot, error) {
	resp, err := s.getValues(ctx, "list_slots", s.calendarSheet+"!A2:B")
	if err != nil {
		return nil, err
	}

	slots := make([]models.CalendarSlot, 0, len(resp.Values))
	for i, row := range resp.Values {
		date := cellString(row, 0)
		if date == "" {
			continue
		}
		slots = append(slots, models.CalendarSlot{
			Row:    i + 2,
			Date:   models.NormalizeDate(date),
			Status: cellString(row, 1),
		})
	}
	return slots, nil
}

// FindAnchorRow возвращает первую строку, где дата в колонке A совпадает с date.
func (s *SheetsService) FindAnchorRow(ctx context.Context, date string) (int, error) {
	resp, err := s.getValues(ctx, "find_anchor", s.calendarSheet+"!A:A")
	if err != nil {
		return 0, err
	}

	want := models.NormalizeDate(date)
	for i, row := range resp.Values {
		// первая строка: заголовок
		if i == 0 {
			continue
		}
		if models.NormalizeDate(cellString(row, 0)) == want {
			return i + 1, nil
		}
	}
	return 0, models.ErrSlotNotFound
}

// ReadSlot reads one row. A row past the end of the sheet comes back empty.
func (s *SheetsService) ReadSlot(ctx context.Context, row int) (models.CalendarSlot, error) {
	rng := fmt.Sprintf("%s!A%d:B%d", s.calendarSheet, row, row)
	resp, err := s.getValues(ctx, "read_slot", rng)
	if err != nil {
		return models.CalendarSlot{}, err
	}

	slot := models.CalendarSlot{Row: row}
	if len(resp.Values) > 0 {
		slot.Date = models.NormalizeDate(cellString(resp.Values[0], 0))
		slot.Status = cellString(resp.Values[0], 1)
	}
	return slot, nil
}

// WriteReservation пишет статус и данные клиента одной операцией (B..F).
func (s *SheetsService) WriteReservation(ctx context.Context, row int, data models.ReservationRow) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!B%d:F%d", s.calendarSheet, row, row)
	values := &sheets.ValueRange{
		Values: [][]interface{}{{data.Status, data.Name, "", data.Phone, data.Address}},
	}
	// RAW, чтобы телефон не превратился в число
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rng, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	metrics.IncSheets("write_reservation", err)
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

// GetText returns the informational text for key, cached for cacheTTL.
func (s *SheetsService) GetText(ctx context.Context, key models.ContentKey) (string, error) {
	column, ok := contentColumns[key]
	if !ok {
		return "", fmt.Errorf("unknown content key %q", key)
	}

	s.cacheMu.RLock()
	cached, hit := s.cache[key]
	s.cacheMu.RUnlock()
	if hit && s.now().Before(cached.expiresAt) {
		return cached.text, nil
	}

	resp, err := s.getValues(ctx, "get_text", fmt.Sprintf("%s!%s2", s.contentSheet, column))
	if err != nil {
		if hit {
			// устаревший текст лучше, чем ошибка
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Serving stale content")
			return cached.text, nil
		}
		return "", err
	}

	text := ""
	if len(resp.Values) > 0 {
		text = cellString(resp.Values[0], 0)
	}

	s.cacheMu.Lock()
	s.cache[key] = cachedText{text: text, expiresAt: s.now().Add(s.cacheTTL)}
	s.cacheMu.Unlock()

	return text, nil
}

// RefreshContent drops the cache and reloads every text.
func (s *SheetsService) RefreshContent(ctx context.Context) error {
	s.cacheMu.Lock()
	s.cache = make(map[models.ContentKey]cachedText)
	s.cacheMu.Unlock()

	var errs []error
	for _, key := range []models.ContentKey{models.ContentManual, models.ContentRules, models.ContentPayment} {
		if _, err := s.GetText(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
