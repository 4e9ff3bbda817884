package domain

import (
	"context"
	"time"

	"robotrent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CalendarStore is the shared calendar sheet: one row per day.
type CalendarStore interface {
	ListSlots(ctx context.Context) ([]models.CalendarSlot, error)
	FindAnchorRow(ctx context.Context, date string) (int, error)
	ReadSlot(ctx context.Context, row int) (models.CalendarSlot, error)
	WriteReservation(ctx context.Context, row int, data models.ReservationRow) error
}

type ContentLookup interface {
	GetText(ctx context.Context, key models.ContentKey) (string, error)
}

// ContentRefresher drops cached informational texts.
type ContentRefresher interface {
	RefreshContent(ctx context.Context) error
}

type NotificationSink interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type SessionManager interface {
	Load(ctx context.Context, userID, chatID int64) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Reset(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// RangeLocker serializes reservations over overlapping calendar rows.
// The returned release func is safe to call once.
type RangeLocker interface {
	Lock(ctx context.Context, keys []string) (func(), error)
}

type ReservationJournal interface {
	BeginReservation(ctx context.Context, r *models.Reservation) error
	CompleteReservation(ctx context.Context, id int64, rowsWritten int) error
	MarkPartial(ctx context.Context, id int64, rowsWritten int, cause string) error
	ListReservations(ctx context.Context, since time.Time) ([]*models.Reservation, error)
	ListIncomplete(ctx context.Context, olderThan time.Time) ([]*models.Reservation, error)
}

type AvailabilityView interface {
	RenderWeek(ctx context.Context, weekOffset int, now time.Time) ([]models.DayOption, error)
}

type ReservationCommitter interface {
	Commit(ctx context.Context, session *models.Session) (*models.Reservation, error)
}

// JobRunner runs a registered maintenance job on demand.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendRemoveKeyboard(chatID int64, text string) (tgbotapi.Message, error)
	SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	AnswerCallbackAlert(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
