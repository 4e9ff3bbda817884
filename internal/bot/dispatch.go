package bot

import (
	"context"

	"robotrent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// stepHandler обрабатывает ввод на своём шаге, меняет черновик и
// возвращает следующий шаг.
type stepHandler func(ctx context.Context, s *models.Session, in *input) models.Step

func (b *Bot) stepHandlers() map[models.Step]stepHandler {
	return map[models.Step]stepHandler{
		models.StepMenu:     b.handleMenu,
		models.StepName:     b.handleName,
		models.StepDistrict: b.handleDistrict,
		models.StepStreet:   b.handleStreet,
		models.StepPhone:    b.handlePhone,
		models.StepDuration: b.handleDuration,
		models.StepDate:     b.handleDate,
		models.StepConfirm:  b.handleConfirm,
	}
}

var infoKeys = map[string]models.ContentKey{
	cbRules:   models.ContentRules,
	cbPayment: models.ContentPayment,
	cbManual:  models.ContentManual,
}

// dispatch routes every input: global triggers first, then the handler of
// the current step.
func (b *Bot) dispatch(ctx context.Context, s *models.Session, in *input) {
	l := zerolog.Ctx(ctx)

	switch cmd := in.command(); {
	case cmd == "start":
		b.endSession(ctx, s)
		if _, err := b.tgService.SendWithKeyboard(in.chatID, textStart, startKeyboard()); err != nil {
			l.Error().Err(err).Msg("failed to send start keyboard")
		}
		b.send(ctx, in.chatID, textMainMenu, ptr(mainMenuKeyboard()))
		return

	case cmd == "menu" || in.text == menuButtonText || in.data == cbMenu:
		b.endSession(ctx, s)
		b.reply(ctx, in, textMainMenu, ptr(mainMenuKeyboard()))
		return

	case cmd == "cancel" || in.data == cbCancel:
		b.endSession(ctx, s)
		b.reply(ctx, in, textCancelled, ptr(returnToMenuKeyboard()))
		return

	case in.data == cbBookNow:
		// единственная точка, где черновик сбрасывается
		s.Step = models.StepName
		s.ResetDraft()
		b.save(ctx, s)
		b.reply(ctx, in, textAskName, nil)
		return
	}

	if key, ok := infoKeys[in.data]; ok {
		b.showInfo(ctx, in, key)
		return
	}

	handler, ok := b.handlers[s.Step]
	if !ok {
		l.Warn().Str("step", string(s.Step)).Msg("no handler for step, resetting")
		b.endSession(ctx, s)
		b.reply(ctx, in, textMainMenu, ptr(mainMenuKeyboard()))
		return
	}

	draft := s.Clone()
	next := handler(ctx, draft, in)

	if next == models.StepEnd {
		b.endSession(ctx, s)
		return
	}
	if !models.CanTransition(s.Step, next) {
		l.Error().
			Str("from", string(s.Step)).
			Str("to", string(next)).
			Msg("transition rejected")
		return
	}

	draft.Step = next
	b.save(ctx, draft)
}

func (b *Bot) endSession(ctx context.Context, s *models.Session) {
	if err := b.sessions.Reset(ctx, s.UserID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to reset session")
	}
}

func (b *Bot) save(ctx context.Context, s *models.Session) {
	if err := b.sessions.Save(ctx, s); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("step", string(s.Step)).Msg("failed to save session")
	}
}

func (b *Bot) showInfo(ctx context.Context, in *input, key models.ContentKey) {
	text, err := b.content.GetText(ctx, key)
	if err != nil || text == "" {
		zerolog.Ctx(ctx).Error().Err(err).Str("key", string(key)).Msg("failed to load info text")
		text = textInfoMissing
	}
	b.reply(ctx, in, text, ptr(backKeyboard()))
}

// reply edits the message that carried the pressed button, or sends a new
// one for typed input.
func (b *Bot) reply(ctx context.Context, in *input, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if in.isCallback() && in.messageID != 0 {
		if _, err := b.tgService.EditMessage(in.chatID, in.messageID, text, keyboard); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to edit message")
		}
		return
	}
	b.send(ctx, in.chatID, text, keyboard)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	var err error
	if keyboard != nil {
		_, err = b.tgService.SendWithInlineKeyboard(chatID, text, *keyboard)
	} else {
		_, err = b.tgService.SendMessage(chatID, text)
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

// answer закрывает callback: всплывающим окном при alert, иначе подсказкой.
func (b *Bot) answer(ctx context.Context, in *input, text string, alert bool) {
	if !in.isCallback() || in.answered {
		return
	}
	in.answered = true

	var err error
	if alert {
		err = b.tgService.AnswerCallbackAlert(in.callbackID, text)
	} else {
		err = b.tgService.AnswerCallback(in.callbackID, text)
	}
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("answer callback failed")
	}
}

func ptr[T any](v T) *T {
	return &v
}
