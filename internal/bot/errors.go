package bot

import (
	"errors"
	"fmt"

	"robotrent/internal/models"
	"robotrent/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type failure struct {
	text     string
	keyboard tgbotapi.InlineKeyboardMarkup
	next     models.Step
}

// commitFailure решает, что показать клиенту и куда вернуть диалог после
// неудачного подтверждения.
func commitFailure(err error, s *models.Session) failure {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		return failure{
			text:     fmt.Sprintf("На жаль, дата %s недоступна для бронювання. Будь ласка, оберіть інші дати.", conflict.Date),
			keyboard: retryDateKeyboard(),
			next:     models.StepDate,
		}

	case errors.Is(err, models.ErrSlotNotFound):
		return failure{
			text:     fmt.Sprintf("На жаль, дати %s немає в календарі. Будь ласка, оберіть інші дати.", s.SelectedDate),
			keyboard: retryDateKeyboard(),
			next:     models.StepDate,
		}

	case errors.Is(err, models.ErrIncompleteSession):
		return failure{
			text:     textIncompleteDraft,
			keyboard: mainMenuKeyboard(),
			next:     models.StepEnd,
		}

	case errors.Is(err, models.ErrPartialCommit):
		// часть дней уже записана, повтор дал бы конфликт с самим собой
		return failure{
			text:     "⚠️ Бронювання збережено не повністю. Менеджер перевірить календар і зв'яжеться з Вами.",
			keyboard: returnToMenuKeyboard(),
			next:     models.StepEnd,
		}

	case errors.Is(err, models.ErrLockTimeout):
		return failure{
			text:     "⏳ Цю дату саме бронює інший клієнт. Спробуйте підтвердити ще раз за кілька секунд.",
			keyboard: confirmKeyboard(),
			next:     models.StepConfirm,
		}
	}

	return failure{
		text:     "❌ Не вдалося зберегти бронювання. Спробуйте ще раз пізніше або поверніться в меню.",
		keyboard: confirmKeyboard(),
		next:     models.StepConfirm,
	}
}
