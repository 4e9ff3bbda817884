package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"robotrent/internal/metrics"
	"robotrent/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrQueueFull = errors.New("notification queue is full")

// MessageSender is the part of the Telegram service the notifier needs.
type MessageSender interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
}

// Notification is one message for the admin chat.
type Notification struct {
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier отправляет уведомления администратору в фоне с повторами.
// Вызывающий код не ждёт Telegram.
type Notifier struct {
	sender        MessageSender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan Notification
	deadLetterKey string
	logger        *zerolog.Logger
	sleep         func(ctx context.Context, d time.Duration) bool
	wg            sync.WaitGroup
}

func NewNotifier(sender MessageSender, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan Notification, models.NotifyQueueSize),
		deadLetterKey: "notify:deadletter",
		logger:        logger,
		sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Notify ставит сообщение в очередь и сразу возвращается.
func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	msg := Notification{ChatID: chatID, Text: text, CreatedAt: time.Now()}
	select {
	case n.queue <- msg:
		return nil
	default:
		metrics.IncNotification(ErrQueueFull)
		n.logger.Error().Int64("chat_id", chatID).Msg("Notification queue full, message dropped")
		n.pushDeadLetter(ctx, msg)
		return ErrQueueFull
	}
}

// Start обрабатывает очередь до отмены ctx, затем один раз пытается
// отправить то, что осталось.
func (n *Notifier) Start(ctx context.Context) {
	n.wg.Add(1)
	defer n.wg.Done()

	n.logger.Info().Msg("Notifier started")
	defer n.logger.Info().Msg("Notifier stopped")

	for {
		select {
		case <-ctx.Done():
			n.drain()
			return
		case msg := <-n.queue:
			n.deliver(ctx, msg)
		}
	}
}

// Wait blocks until Start has returned.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, msg Notification) {
	for {
		msg.Attempts++
		_, err := n.sender.SendMessage(msg.ChatID, msg.Text)
		metrics.IncNotification(err)
		if err == nil {
			return
		}
		msg.LastError = err.Error()

		if n.retryPolicy.Exhausted(msg.Attempts) {
			n.logger.Error().Err(err).Int64("chat_id", msg.ChatID).Int("attempts", msg.Attempts).
				Msg("Notification failed, moving to dead letter")
			n.pushDeadLetter(ctx, msg)
			return
		}

		delay := n.retryPolicy.NextDelay(msg.Attempts)
		n.logger.Warn().Err(err).Int("attempt", msg.Attempts).Dur("retry_in", delay).Msg("Notification failed, retrying")
		if !n.sleep(ctx, delay) {
			n.pushDeadLetter(context.Background(), msg)
			return
		}
	}
}

func (n *Notifier) drain() {
	for {
		select {
		case msg := <-n.queue:
			msg.Attempts++
			if _, err := n.sender.SendMessage(msg.ChatID, msg.Text); err != nil {
				msg.LastError = err.Error()
				n.pushDeadLetter(context.Background(), msg)
			}
		default:
			return
		}
	}
}

func (n *Notifier) pushDeadLetter(ctx context.Context, msg Notification) {
	if n.redis == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to encode dead letter")
		return
	}
	if err := n.redis.LPush(ctx, n.deadLetterKey, data).Err(); err != nil {
		n.logger.Error().Err(err).Msg("Failed to push dead letter")
	}
}
