package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12.06.2025", "12.06.2025"},
		{" 12.06.2025 ", "12.06.2025"},
		{"2025-06-12", "12.06.2025"},
		{"1.6.2025", "01.06.2025"},
		{"31.02.2025", "31.02.2025"},
		{"Червень", "Червень"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeDate(tt.input), tt.input)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusFree, NormalizeStatus("  Вільна "))
	assert.Equal(t, "ремонт", NormalizeStatus("РЕМОНТ"))

	slot := CalendarSlot{Status: " ВІЛЬНА\n"}
	assert.True(t, slot.IsFree(StatusFree))
	slot.Status = StatusReserved
	assert.False(t, slot.IsFree(StatusFree))
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("EEST", 3*60*60)
	d, err := ParseDate("2025-06-12", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, loc), d)

	_, err = ParseDate("not a date", loc)
	assert.Error(t, err)
}

func TestSession_Helpers(t *testing.T) {
	s := NewSession(1, 2)
	assert.Equal(t, StepMenu, s.Step)
	assert.Equal(t, 1, s.Days())
	assert.False(t, s.Complete())

	s.Name = "Олена Коваль"
	s.District = Districts[0]
	s.Street = "Франка 10"
	s.Phone = "0671234567"
	s.SelectedDate = "12.06.2025"
	s.Duration = 2
	assert.True(t, s.Complete())
	assert.Equal(t, 2, s.Days())
	assert.Equal(t, "🏛 Галицький - Франка 10", s.Address())

	c := s.Clone()
	c.Name = "Інше"
	assert.Equal(t, "Олена Коваль", s.Name)

	s.Step = StepConfirm
	s.ResetDraft()
	assert.Equal(t, int64(1), s.UserID)
	assert.Equal(t, int64(2), s.ChatID)
	assert.Equal(t, StepConfirm, s.Step)
	assert.Empty(t, s.District)
	assert.Empty(t, s.Phone)
	assert.Zero(t, s.Duration)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StepMenu, StepName))
	assert.True(t, CanTransition(StepName, StepDistrict))
	assert.True(t, CanTransition(StepDate, StepConfirm))
	assert.True(t, CanTransition(StepConfirm, StepDate))
	assert.True(t, CanTransition(StepPhone, StepEnd))
	assert.True(t, CanTransition(StepDate, StepName))

	assert.False(t, CanTransition(StepName, StepConfirm))
	assert.False(t, CanTransition(StepMenu, StepDate))
	assert.False(t, CanTransition(StepDistrict, StepPhone))
	assert.False(t, CanTransition(StepDuration, StepConfirm))

	for from := range Transitions {
		assert.True(t, CanTransition(from, StepEnd), from)
	}
}

func TestNewReservation(t *testing.T) {
	s := &Session{
		UserID: 7, Name: "Олена Коваль", District: Districts[0], Street: "Франка 10",
		Phone: "0671234567", SelectedDate: "12.06.2025",
	}
	r := NewReservation(s, []int{5})
	assert.Equal(t, 1, r.Duration)
	assert.Equal(t, ReservationPending, r.Status)
	assert.Equal(t, "🏛 Галицький - Франка 10", r.Address)
	assert.Equal(t, []int{5}, r.Rows)
}
