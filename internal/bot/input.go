package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// input is one user action, either typed text or a pressed inline button.
type input struct {
	userID     int64
	chatID     int64
	text       string
	data       string
	callbackID string
	messageID  int
	answered   bool
}

func newInput(update tgbotapi.Update) *input {
	if cb := update.CallbackQuery; cb != nil && cb.From != nil {
		in := &input{
			userID:     cb.From.ID,
			chatID:     cb.From.ID,
			data:       cb.Data,
			callbackID: cb.ID,
		}
		if cb.Message != nil {
			in.messageID = cb.Message.MessageID
			if cb.Message.Chat != nil {
				in.chatID = cb.Message.Chat.ID
			}
		}
		return in
	}

	if msg := update.Message; msg != nil && msg.From != nil {
		in := &input{
			userID: msg.From.ID,
			chatID: msg.From.ID,
			text:   strings.TrimSpace(msg.Text),
		}
		if msg.Chat != nil {
			in.chatID = msg.Chat.ID
		}
		return in
	}
	return nil
}

func (in *input) isCallback() bool {
	return in.callbackID != ""
}

// command returns the command name without the slash and bot suffix.
func (in *input) command() string {
	if !strings.HasPrefix(in.text, "/") {
		return ""
	}
	name := strings.Fields(in.text)[0][1:]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name
}

func (in *input) commandArgs() []string {
	if in.command() == "" {
		return nil
	}
	return strings.Fields(in.text)[1:]
}
