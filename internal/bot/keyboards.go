package bot

import (
	"fmt"
	"strconv"

	"robotrent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Данные inline-кнопок
const (
	cbRules       = "rules"
	cbPayment     = "payment"
	cbManual      = "manual"
	cbMenu        = "menu"
	cbBookNow     = "book_now"
	cbDistrict    = "district:"
	cbDuration1   = "duration_1"
	cbDuration2   = "duration_2"
	cbSelectDate  = "select_"
	cbDisabled    = "disabled"
	cbNextWeek    = "next_week"
	cbCurrentWeek = "current_week"
	cbConfirm     = "confirm"
	cbCancel      = "cancel"
	cbRetryDate   = "retry_date"
)

const menuButtonText = "📋 Меню"

const (
	textStart           = "Натисни, щоб продовжити ⬇️"
	textMainMenu        = "📋 Головне меню:"
	textAskName         = "Введіть, будь ласка, Ваше ім'я та прізвище:"
	textAskDistrict     = "Оберіть район:"
	textAskStreet       = "Введіть, будь ласка, адресу доставки:"
	textAskPhone        = "Введіть, будь ласка, свій номер телефону:"
	textAskDuration     = "На скільки днів хочете забронювати?"
	textAskDate         = "Оберіть дату початку бронювання:"
	textInvalidName     = "Введіть коректне ім'я (лише літери, мінімум 2 символи):"
	textInvalidStreet   = "Введіть коректну назву вулиці (мінімум 3 символи):"
	textInvalidPhone    = "Невірний формат. Приклад: 067xxxxxxx або +38067xxxxxxx"
	textDateDisabled    = "Ця дата недоступна для бронювання. Оберіть іншу дату"
	textCancelled       = "Бронювання скасовано."
	textUseButtons      = "Будь ласка, скористайтеся кнопками нижче."
	textIncompleteDraft = "Дані бронювання неповні. Почніть, будь ласка, спочатку."
	textInfoMissing     = "Інформація тимчасово недоступна. Спробуйте пізніше."
	textCalendarError   = "Не вдалося завантажити календар. Спробуйте ще раз."
	textRateLimited     = "⚠️ Ви надсилаєте повідомлення занадто часто. Зачекайте трохи."

	textServiceUnavailable = "❌ Сервіс тимчасово недоступний. Спробуйте пізніше."
)

func confirmText(s *models.Session) string {
	return fmt.Sprintf("Перевірте дані перед бронюванням:\n"+
		"Дата: %s (%d доба/доб)\n"+
		"Ім'я: %s\n"+
		"Район: %s\n"+
		"Вулиця: %s\n"+
		"Телефон: %s\n\nПідтвердити?",
		s.SelectedDate, s.Days(), s.Name, s.District, s.Street, s.Phone)
}

func successText(res *models.Reservation) string {
	period := "на 1 добу"
	if res.Duration == 2 {
		period = "на 2 доби"
	}
	return fmt.Sprintf("Бронювання з %s %s підтверджено! Будь ласка, очікуйте дзвінка від менеджера.",
		res.StartDate, period)
}

func startKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuButtonText)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📜 Правила оренди", cbRules)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💰 Оплата і умови доставки 📍", cbPayment)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Забронювати", cbBookNow)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛠 Інструкція використання", cbManual)),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbMenu)),
	)
}

func menuRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(menuButtonText, cbMenu))
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(menuRow())
}

func returnToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Повернутись в меню", cbMenu)),
	)
}

func districtKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(models.Districts)+1)
	for i, d := range models.Districts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(d, cbDistrict+strconv.Itoa(i)),
		))
	}
	rows = append(rows, menuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func durationKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("1 доба", cbDuration1)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("2 доби", cbDuration2)),
		menuRow(),
	)
}

// weekKeyboard рисует по кнопке на день и навигацию между двумя неделями.
func weekKeyboard(days []models.DayOption, weekOffset int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(days)+1)
	for _, d := range days {
		if d.Enabled {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ "+d.Label, cbSelectDate+d.Label),
			))
		} else {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🚫 "+d.Label, cbDisabled),
			))
		}
	}

	nav := tgbotapi.NewInlineKeyboardButtonData("➡️ Наступний тиждень", cbNextWeek)
	if weekOffset != 0 {
		nav = tgbotapi.NewInlineKeyboardButtonData("⬅️ Поточний тиждень", cbCurrentWeek)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		nav,
		tgbotapi.NewInlineKeyboardButtonData(menuButtonText, cbMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Підтвердити", cbConfirm)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Скасувати", cbCancel)),
		menuRow(),
	)
}

func retryDateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 Повернутись до вибору дати", cbRetryDate)),
		menuRow(),
	)
}
