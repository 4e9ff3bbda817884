package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

const textManagerHelp = "Команди менеджера:\n" +
	"/export [днів] - журнал бронювань у Excel\n" +
	"/refresh - оновити тексти з таблиці\n" +
	"/audit - перевірити незавершені бронювання"

// handleManagerCommand обрабатывает служебные команды; false значит,
// что ввод нужно передать в обычный диалог.
func (b *Bot) handleManagerCommand(ctx context.Context, in *input) bool {
	switch in.command() {
	case "export":
		b.handleExport(ctx, in)
	case "refresh":
		b.runJob(ctx, in, "content_refresh", "✅ Тексти оновлено")
	case "audit":
		b.runJob(ctx, in, "audit", "✅ Перевірку завершено")
	case "help":
		b.send(ctx, in.chatID, textManagerHelp, nil)
	default:
		return false
	}
	return true
}

func (b *Bot) handleExport(ctx context.Context, in *input) {
	days := b.config.Bot.ExportDays
	if args := in.commandArgs(); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			b.send(ctx, in.chatID, "Вкажіть кількість днів числом, наприклад: /export 30", nil)
			return
		}
		days = n
	}

	until := b.now()
	since := until.AddDate(0, 0, -days)
	reservations, err := b.journal.ListReservations(ctx, since)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list reservations for export")
		b.send(ctx, in.chatID, "❌ Не вдалося прочитати журнал бронювань", nil)
		return
	}

	path, err := b.exportToExcel(reservations, since, until)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to export reservations")
		b.send(ctx, in.chatID, "❌ Не вдалося створити файл", nil)
		return
	}

	caption := fmt.Sprintf("Бронювання за %d днів: %d", days, len(reservations))
	if _, err := b.tgService.SendDocument(in.chatID, path, caption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", path).Msg("failed to send export")
	}
}

func (b *Bot) runJob(ctx context.Context, in *input, name, done string) {
	if b.jobs == nil {
		b.send(ctx, in.chatID, "Планувальник вимкнено", nil)
		return
	}
	if err := b.jobs.RunNow(ctx, name); err != nil {
		b.send(ctx, in.chatID, fmt.Sprintf("❌ Помилка: %v", err), nil)
		return
	}
	b.send(ctx, in.chatID, done, nil)
}
