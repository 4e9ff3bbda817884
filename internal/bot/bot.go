package bot

import (
	"context"
	"os"
	"sync"
	"time"

	"robotrent/internal/config"
	"robotrent/internal/domain"
	"robotrent/internal/metrics"
	"robotrent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	updateTimeout = 30 * time.Second
	shardBuffer   = 64
)

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	sessions     domain.SessionManager
	availability domain.AvailabilityView
	reservations domain.ReservationCommitter
	content      domain.ContentLookup
	journal      domain.ReservationJournal
	jobs         domain.JobRunner
	handlers     map[models.Step]stepHandler
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	sessions domain.SessionManager,
	availability domain.AvailabilityView,
	reservations domain.ReservationCommitter,
	content domain.ContentLookup,
	journal domain.ReservationJournal,
	jobs domain.JobRunner,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	b := &Bot{
		tgService:    tgService,
		config:       config,
		sessions:     sessions,
		availability: availability,
		reservations: reservations,
		content:      content,
		journal:      journal,
		jobs:         jobs,
		logger:       logger,
		now:          time.Now,
	}
	b.handlers = b.stepHandlers()
	return b, nil
}

// Start читает обновления и раздаёт их воркерам по user id:
// сообщения одного пользователя обрабатываются строго по порядку.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	workers := b.config.Bot.Workers
	if workers <= 0 {
		workers = 1
	}
	shards := make([]chan tgbotapi.Update, workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, shardBuffer)
		wg.Add(1)
		go func(ch <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range ch {
				if ctx.Err() != nil {
					continue
				}
				b.processUpdate(ctx, update)
			}
		}(shards[i])
	}
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
		b.logger.Info().Msg("Bot stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			userID := updateUserID(update)
			if userID == 0 {
				continue
			}
			shard := shards[uint64(userID)%uint64(len(shards))]
			select {
			case shard <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop прекращает long polling; Start после этого выходит по закрытому каналу.
func (b *Bot) Stop() {
	if b.tgService != nil {
		b.tgService.StopReceivingUpdates()
	}
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil:
		return "message"
	}
	return "other"
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	kind := updateKind(update)
	defer func() {
		metrics.ObserveUpdate(kind, time.Since(start))
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	in := newInput(update)
	if in == nil {
		return
	}

	requestID := uuid.New().String()
	l := b.logger.With().
		Str("request_id", requestID).
		Int64("user_id", in.userID).
		Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(updateCtx, func() {
		if !b.allow(updateCtx, in) {
			return
		}
		b.handleInput(updateCtx, in)
	})
}

func (b *Bot) handleInput(ctx context.Context, in *input) {
	defer func() {
		// Убираем "часики" с кнопки, если обработчик не ответил сам
		if in.isCallback() && !in.answered {
			if err := b.tgService.AnswerCallback(in.callbackID, ""); err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("answer callback failed")
			}
		}
	}()

	zerolog.Ctx(ctx).Debug().
		Str("text", in.text).
		Str("data", in.data).
		Msg("Handling update")

	if b.isManager(in.userID) && b.handleManagerCommand(ctx, in) {
		return
	}

	session, err := b.sessions.Load(ctx, in.userID, in.chatID)
	if err != nil {
		b.reply(ctx, in, textServiceUnavailable, nil)
		return
	}
	b.dispatch(ctx, session, in)
}

func (b *Bot) isManager(userID int64) bool {
	return b.config.IsManager(userID)
}
