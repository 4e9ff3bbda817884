package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "robotrent"

var (
	once sync.Once

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	updateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_processing_seconds",
			Help:      "Time spent processing one update.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	panicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Recovered panics in update handlers.",
		},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Updates dropped by the per-user rate limit.",
		},
	)

	reservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation commit attempts by result.",
		},
		[]string{"result"},
	)

	reservedDays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reserved_days_total",
			Help:      "Calendar days reserved.",
		},
	)

	sheetsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_requests_total",
			Help:      "Google Sheets API calls by operation and result.",
		},
		[]string{"op", "result"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Admin notifications by result.",
		},
		[]string{"result"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_jobs_total",
			Help:      "Scheduled job runs by job and result.",
		},
		[]string{"job", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			updatesTotal,
			updateDuration,
			panicsTotal,
			rateLimitedTotal,
			reservationsTotal,
			reservedDays,
			sheetsRequests,
			notificationsTotal,
			jobsTotal,
		)
	})
}

func ObserveUpdate(kind string, took time.Duration) {
	updatesTotal.WithLabelValues(kind).Inc()
	updateDuration.Observe(took.Seconds())
}

func IncPanic() { panicsTotal.Inc() }

func IncRateLimited() { rateLimitedTotal.Inc() }

// IncReservation counts a commit outcome; days is added only for committed ones.
func IncReservation(result string, days int) {
	reservationsTotal.WithLabelValues(result).Inc()
	if result == "committed" {
		reservedDays.Add(float64(days))
	}
}

func IncSheets(op string, err error) {
	sheetsRequests.WithLabelValues(op, result(err)).Inc()
}

func IncNotification(err error) {
	notificationsTotal.WithLabelValues(result(err)).Inc()
}

func IncJob(job string, err error) {
	jobsTotal.WithLabelValues(job, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
