package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"robotrent/internal/domain"
)

// AuditJob сообщает администратору о бронях, которые не дописались в таблицу.
// Записи младше grace пропускаются: они могут быть ещё в процессе.
func AuditJob(journal domain.ReservationJournal, sink domain.NotificationSink, adminChatID int64, grace time.Duration) JobFunc {
	return func(ctx context.Context) error {
		stale, err := journal.ListIncomplete(ctx, time.Now().Add(-grace))
		if err != nil {
			return fmt.Errorf("list incomplete reservations: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "ПЕРЕВІРТЕ КАЛЕНДАР: %d незавершених бронювань\n", len(stale))
		for _, r := range stale {
			fmt.Fprintf(&b, "\n#%d %s (%d доба/доб), %s, %s\nстатус: %s, записано рядків: %d з %d",
				r.ID, r.StartDate, r.Duration, r.Name, r.Phone, r.Status, r.RowsWritten, len(r.Rows))
			if r.LastError != nil {
				fmt.Fprintf(&b, "\nпомилка: %s", *r.LastError)
			}
		}
		return sink.Notify(ctx, adminChatID, b.String())
	}
}

// ContentRefreshJob wraps the content cache refresh.
func ContentRefreshJob(refresher domain.ContentRefresher) JobFunc {
	return refresher.RefreshContent
}
