package models

import "time"

const (
	// StatusFree статус свободного дня в календаре
	StatusFree = "вільна"
	// StatusReserved статус забронированного дня
	StatusReserved = "заброньована"
)

const (
	ReservationPending   = "pending"
	ReservationCommitted = "committed"
	ReservationPartial   = "partial"
)

const (
	// DateLayout канонический формат даты в календаре
	DateLayout = "02.01.2006"
	// ISODateLayout альтернативный формат, который встречается в таблице
	ISODateLayout = "2006-01-02"
)

const (
	// DefaultSessionTTL время жизни черновика в Redis
	DefaultSessionTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultCutoff время, после которого бронь на сегодня закрыта
	DefaultCutoff = 14 * time.Hour

	// DefaultWindowDays количество дней в недельном окне
	DefaultWindowDays = 6

	// DefaultTimezone часовой пояс календаря
	DefaultTimezone = "Europe/Kyiv"

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// ContentCacheTTL время жизни кэша текстов из таблицы
	ContentCacheTTL = 30 * 60 // 30 минут в секундах

	// DefaultExportDays глубина экспорта журнала
	DefaultExportDays = 30

	// NotifyQueueSize размер очереди уведомлений администратору
	NotifyQueueSize = 128
)

// ContentKey identifies one static informational text.
type ContentKey string

const (
	ContentManual  ContentKey = "manual"
	ContentRules   ContentKey = "rules"
	ContentPayment ContentKey = "payment"
)

// Districts is the fixed, ordered list of delivery districts.
var Districts = []string{
	"🏛 Галицький",
	"🏡 Франківський",
	"🌳 Сихівський",
	"🚉 Залізничний",
	"🌲 Шевченківський",
	"🏰 Личаківський",
	"🏘 Околиці",
}
