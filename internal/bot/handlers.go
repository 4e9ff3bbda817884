package bot

import (
	"context"
	"strconv"
	"strings"

	"robotrent/internal/models"

	"github.com/rs/zerolog"
)

func (b *Bot) handleMenu(ctx context.Context, s *models.Session, in *input) models.Step {
	b.reply(ctx, in, textMainMenu, ptr(mainMenuKeyboard()))
	return models.StepMenu
}

func (b *Bot) handleName(ctx context.Context, s *models.Session, in *input) models.Step {
	if in.isCallback() {
		b.reprompt(ctx, s, in)
		return models.StepName
	}
	if !ValidName(in.text) {
		b.send(ctx, in.chatID, textInvalidName, nil)
		return models.StepName
	}

	s.Name = strings.Join(strings.Fields(in.text), " ")
	b.send(ctx, in.chatID, textAskDistrict, ptr(districtKeyboard()))
	return models.StepDistrict
}

func (b *Bot) handleDistrict(ctx context.Context, s *models.Session, in *input) models.Step {
	idx, ok := districtIndex(in.data)
	if !ok {
		b.reprompt(ctx, s, in)
		return models.StepDistrict
	}

	s.District = models.Districts[idx]
	b.reply(ctx, in, textAskStreet, nil)
	return models.StepStreet
}

func districtIndex(data string) (int, bool) {
	if !strings.HasPrefix(data, cbDistrict) {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(data, cbDistrict))
	if err != nil || idx < 0 || idx >= len(models.Districts) {
		return 0, false
	}
	return idx, true
}

func (b *Bot) handleStreet(ctx context.Context, s *models.Session, in *input) models.Step {
	if in.isCallback() {
		b.reprompt(ctx, s, in)
		return models.StepStreet
	}
	if !ValidStreet(in.text) {
		b.send(ctx, in.chatID, textInvalidStreet, nil)
		return models.StepStreet
	}

	// храним как ввёл клиент, нормализация только для проверки
	s.Street = in.text
	b.send(ctx, in.chatID, textAskPhone, nil)
	return models.StepPhone
}

func (b *Bot) handlePhone(ctx context.Context, s *models.Session, in *input) models.Step {
	if in.isCallback() {
		b.reprompt(ctx, s, in)
		return models.StepPhone
	}
	if !ValidPhone(in.text) {
		b.send(ctx, in.chatID, textInvalidPhone, nil)
		return models.StepPhone
	}

	s.Phone = NormalizePhone(in.text)
	b.send(ctx, in.chatID, textAskDuration, ptr(durationKeyboard()))
	return models.StepDuration
}

func (b *Bot) handleDuration(ctx context.Context, s *models.Session, in *input) models.Step {
	switch in.data {
	case cbDuration1:
		s.Duration = 1
	case cbDuration2:
		s.Duration = 2
	default:
		b.reprompt(ctx, s, in)
		return models.StepDuration
	}

	s.WeekOffset = 0
	s.SelectedDate = ""
	b.showWeek(ctx, s, in)
	return models.StepDate
}

func (b *Bot) handleDate(ctx context.Context, s *models.Session, in *input) models.Step {
	switch {
	case in.data == cbNextWeek:
		s.WeekOffset = 1
	case in.data == cbCurrentWeek:
		s.WeekOffset = 0
	case in.data == cbRetryDate:
	case in.data == cbDisabled:
		b.answer(ctx, in, textDateDisabled, true)
		return models.StepDate
	case strings.HasPrefix(in.data, cbSelectDate):
		return b.selectDate(ctx, s, in, strings.TrimPrefix(in.data, cbSelectDate))
	default:
		b.reprompt(ctx, s, in)
		return models.StepDate
	}

	b.showWeek(ctx, s, in)
	return models.StepDate
}

// selectDate перепроверяет дату по свежему окну текущей страницы.
func (b *Bot) selectDate(ctx context.Context, s *models.Session, in *input, date string) models.Step {
	days, err := b.availability.RenderWeek(ctx, s.WeekOffset, b.now())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to render week")
		b.reply(ctx, in, textCalendarError, ptr(retryDateKeyboard()))
		return models.StepDate
	}

	date = models.NormalizeDate(date)
	enabled := false
	for _, d := range days {
		if d.Label == date {
			enabled = d.Enabled
			break
		}
	}
	if !enabled {
		b.answer(ctx, in, textDateDisabled, true)
		b.reply(ctx, in, textAskDate, ptr(weekKeyboard(days, s.WeekOffset)))
		return models.StepDate
	}

	s.SelectedDate = date
	if !s.Complete() {
		b.reply(ctx, in, textIncompleteDraft, ptr(mainMenuKeyboard()))
		return models.StepEnd
	}

	b.reply(ctx, in, confirmText(s), ptr(confirmKeyboard()))
	return models.StepConfirm
}

func (b *Bot) handleConfirm(ctx context.Context, s *models.Session, in *input) models.Step {
	switch in.data {
	case cbConfirm:
	case cbRetryDate:
		s.SelectedDate = ""
		b.showWeek(ctx, s, in)
		return models.StepDate
	default:
		b.reprompt(ctx, s, in)
		return models.StepConfirm
	}

	res, err := b.reservations.Commit(ctx, s)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("date", s.SelectedDate).Msg("reservation not committed")
		outcome := commitFailure(err, s)
		b.reply(ctx, in, outcome.text, ptr(outcome.keyboard))
		if outcome.next == models.StepDate {
			s.SelectedDate = ""
		}
		return outcome.next
	}

	zerolog.Ctx(ctx).Info().
		Int64("reservation_id", res.ID).
		Str("date", res.StartDate).
		Int("days", res.Duration).
		Msg("Reservation committed")
	b.reply(ctx, in, successText(res), ptr(returnToMenuKeyboard()))
	return models.StepEnd
}

// showWeek рисует окно дат для текущей страницы сессии.
func (b *Bot) showWeek(ctx context.Context, s *models.Session, in *input) {
	days, err := b.availability.RenderWeek(ctx, s.WeekOffset, b.now())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("week_offset", s.WeekOffset).Msg("failed to render week")
		b.reply(ctx, in, textCalendarError, ptr(retryDateKeyboard()))
		return
	}
	b.reply(ctx, in, textAskDate, ptr(weekKeyboard(days, s.WeekOffset)))
}

// reprompt повторяет вопрос текущего шага, когда пришёл не тот ввод:
// текст вместо кнопки или кнопка от старого сообщения.
func (b *Bot) reprompt(ctx context.Context, s *models.Session, in *input) {
	if in.isCallback() {
		b.answer(ctx, in, textUseButtons, false)
	}

	switch s.Step {
	case models.StepName:
		b.send(ctx, in.chatID, textAskName, ptr(menuKeyboard()))
	case models.StepDistrict:
		b.send(ctx, in.chatID, textAskDistrict, ptr(districtKeyboard()))
	case models.StepStreet:
		b.send(ctx, in.chatID, textAskStreet, ptr(menuKeyboard()))
	case models.StepPhone:
		b.send(ctx, in.chatID, textAskPhone, ptr(menuKeyboard()))
	case models.StepDuration:
		b.send(ctx, in.chatID, textAskDuration, ptr(durationKeyboard()))
	case models.StepDate:
		days, err := b.availability.RenderWeek(ctx, s.WeekOffset, b.now())
		if err != nil {
			b.send(ctx, in.chatID, textCalendarError, ptr(retryDateKeyboard()))
			return
		}
		b.send(ctx, in.chatID, textAskDate, ptr(weekKeyboard(days, s.WeekOffset)))
	case models.StepConfirm:
		b.send(ctx, in.chatID, confirmText(s), ptr(confirmKeyboard()))
	default:
		b.send(ctx, in.chatID, textMainMenu, ptr(mainMenuKeyboard()))
	}
}
