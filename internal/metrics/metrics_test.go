package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(reservationsTotal.WithLabelValues("committed"))
	daysBefore := testutil.ToFloat64(reservedDays)

	IncReservation("committed", 2)
	IncReservation("conflict", 2)

	assert.Equal(t, before+1, testutil.ToFloat64(reservationsTotal.WithLabelValues("committed")))
	assert.Equal(t, daysBefore+2, testutil.ToFloat64(reservedDays))

	sheetsErr := testutil.ToFloat64(sheetsRequests.WithLabelValues("list_slots", "error"))
	IncSheets("list_slots", errors.New("quota"))
	assert.Equal(t, sheetsErr+1, testutil.ToFloat64(sheetsRequests.WithLabelValues("list_slots", "error")))

	jobsOK := testutil.ToFloat64(jobsTotal.WithLabelValues("audit", "ok"))
	IncJob("audit", nil)
	assert.Equal(t, jobsOK+1, testutil.ToFloat64(jobsTotal.WithLabelValues("audit", "ok")))

	assert.NotPanics(t, func() {
		ObserveUpdate("message", 15*time.Millisecond)
		IncPanic()
		IncRateLimited()
		IncNotification(nil)
	})
}
