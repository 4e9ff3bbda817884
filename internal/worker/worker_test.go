package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"robotrent/internal/models"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	mu    sync.Mutex
	fails int
	calls int
	sent  []string
}

func (f *fakeSender) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fails {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, text)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) snapshot() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]string(nil), f.sent...)
}

func noSleep(ctx context.Context, d time.Duration) bool { return ctx.Err() == nil }

func newTestNotifier(t *testing.T, sender MessageSender, client *redis.Client, retry RetryPolicy) *Notifier {
	t.Helper()
	logger := zerolog.Nop()
	n := NewNotifier(sender, client, retry, &logger)
	n.sleep = noSleep
	return n
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
	if d := (RetryPolicy{}).NextDelay(0); d != time.Second {
		t.Fatalf("zero policy expected 1s, got %s", d)
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	policy := RetryPolicy{}.withDefaults()
	if policy.MaxRetries != 5 || policy.InitialDelay != 2*time.Second || policy.MaxDelay != time.Minute {
		t.Fatalf("unexpected defaults: %+v", policy)
	}
	if policy.Exhausted(4) {
		t.Fatal("attempt 4 of 5 must not be exhausted")
	}
	if !policy.Exhausted(5) {
		t.Fatal("attempt 5 of 5 must be exhausted")
	}
}

func TestNotifierDeliversWithRetry(t *testing.T) {
	sender := &fakeSender{fails: 2}
	n := newTestNotifier(t, sender, nil, RetryPolicy{MaxRetries: 5})

	n.deliver(context.Background(), Notification{ChatID: 1, Text: "НОВЕ БРОНЮВАННЯ"})

	calls, sent := sender.snapshot()
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(sent) != 1 || sent[0] != "НОВЕ БРОНЮВАННЯ" {
		t.Fatalf("unexpected sent messages: %v", sent)
	}
}

func TestNotifierDeadLetter(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	sender := &fakeSender{fails: 100}
	n := newTestNotifier(t, sender, client, RetryPolicy{MaxRetries: 3})

	n.deliver(context.Background(), Notification{ChatID: 7, Text: "lost"})

	calls, _ := sender.snapshot()
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	items, err := s.List("notify:deadletter")
	if err != nil {
		t.Fatalf("dead letter list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(items))
	}
	var dead Notification
	if err := json.Unmarshal([]byte(items[0]), &dead); err != nil {
		t.Fatalf("decode dead letter: %v", err)
	}
	if dead.ChatID != 7 || dead.Attempts != 3 || dead.LastError == "" {
		t.Fatalf("unexpected dead letter: %+v", dead)
	}
}

func TestNotifierQueueFull(t *testing.T) {
	n := newTestNotifier(t, &fakeSender{}, nil, RetryPolicy{})
	ctx := context.Background()

	for i := 0; i < models.NotifyQueueSize; i++ {
		if err := n.Notify(ctx, 1, "x"); err != nil {
			t.Fatalf("notify %d: %v", i, err)
		}
	}
	if err := n.Notify(ctx, 1, "overflow"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestNotifierStartAndDrain(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(t, sender, nil, RetryPolicy{})
	ctx, cancel := context.WithCancel(context.Background())

	go n.Start(ctx)
	if err := n.Notify(ctx, 1, "first"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, sent := sender.snapshot(); len(sent) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("notification was not delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	n.Wait()
}

type fakeJournal struct {
	stale []*models.Reservation
	err   error
	since time.Time
}

func (j *fakeJournal) BeginReservation(context.Context, *models.Reservation) error { return nil }
func (j *fakeJournal) CompleteReservation(context.Context, int64, int) error        { return nil }
func (j *fakeJournal) MarkPartial(context.Context, int64, int, string) error        { return nil }
func (j *fakeJournal) ListReservations(context.Context, time.Time) ([]*models.Reservation, error) {
	return nil, nil
}
func (j *fakeJournal) ListIncomplete(_ context.Context, olderThan time.Time) ([]*models.Reservation, error) {
	j.since = olderThan
	return j.stale, j.err
}

type captureSink struct {
	chatID int64
	texts  []string
}

func (c *captureSink) Notify(_ context.Context, chatID int64, text string) error {
	c.chatID = chatID
	c.texts = append(c.texts, text)
	return nil
}

func TestAuditJob(t *testing.T) {
	cause := "quota exceeded"
	journal := &fakeJournal{stale: []*models.Reservation{{
		ID: 3, StartDate: "12.06.2025", Duration: 2, Name: "Олена", Phone: "0671234567",
		Rows: []int{5, 6}, Status: models.ReservationPartial, RowsWritten: 1, LastError: &cause,
	}}}
	sink := &captureSink{}

	if err := AuditJob(journal, sink, 99, 10*time.Minute)(context.Background()); err != nil {
		t.Fatalf("audit: %v", err)
	}
	if sink.chatID != 99 || len(sink.texts) != 1 {
		t.Fatalf("expected one admin notice, got %+v", sink)
	}
	for _, want := range []string{"#3", "12.06.2025", "записано рядків: 1 з 2", cause} {
		if !strings.Contains(sink.texts[0], want) {
			t.Fatalf("notice %q does not contain %q", sink.texts[0], want)
		}
	}
	if time.Since(journal.since) < 10*time.Minute {
		t.Fatalf("grace period not applied: %v", journal.since)
	}

	quiet := &captureSink{}
	if err := AuditJob(&fakeJournal{}, quiet, 99, 0)(context.Background()); err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(quiet.texts) != 0 {
		t.Fatalf("expected no notice for clean journal")
	}
}

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) RefreshContent(context.Context) error {
	f.calls++
	return nil
}

func TestScheduler(t *testing.T) {
	logger := zerolog.Nop()
	s := NewScheduler(time.UTC, &logger)

	refresher := &fakeRefresher{}
	if err := s.Add("content_refresh", "@every 1h", ContentRefreshJob(refresher)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("disabled", "", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("add disabled: %v", err)
	}
	if err := s.Add("broken", "not a spec", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if err := s.Add("panics", "", func(context.Context) error { panic("boom") }); err != nil {
		t.Fatalf("add panics: %v", err)
	}

	ctx := context.Background()
	if err := s.RunNow(ctx, "content_refresh"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if refresher.calls != 1 {
		t.Fatalf("expected 1 refresh, got %d", refresher.calls)
	}
	if err := s.RunNow(ctx, "panics"); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if err := s.RunNow(ctx, "missing"); err == nil {
		t.Fatalf("expected error for unknown job")
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Fatalf("expected 1 cron entry, got %d", n)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		s.Start(runCtx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}
