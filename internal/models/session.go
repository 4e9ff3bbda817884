package models

import "time"

// Step is the conversation state of a booking session.
type Step string

const (
	StepMenu     Step = "menu"
	StepName     Step = "name"
	StepDistrict Step = "district"
	StepStreet   Step = "street"
	StepPhone    Step = "phone"
	StepDuration Step = "duration"
	StepDate     Step = "date"
	StepConfirm  Step = "confirm"
	StepEnd      Step = "end"
)

// Transitions lists the forward edges of the booking flow. Staying in the
// same step is listed explicitly where a step may re-prompt. StepEnd is
// reachable from every step through the menu and cancel triggers and is not
// repeated here.
var Transitions = map[Step][]Step{
	StepMenu:     {StepMenu, StepName},
	StepName:     {StepName, StepDistrict},
	StepDistrict: {StepDistrict, StepStreet},
	StepStreet:   {StepStreet, StepPhone},
	StepPhone:    {StepPhone, StepDuration},
	StepDuration: {StepDuration, StepDate},
	StepDate:     {StepDate, StepConfirm},
	StepConfirm:  {StepConfirm, StepDate, StepEnd},
	StepEnd:      {StepName},
}

// CanTransition reports whether the flow may move from one step to another.
func CanTransition(from, to Step) bool {
	if to == StepEnd {
		return true
	}
	// "book now" re-enters the flow from anywhere.
	if to == StepName {
		return true
	}
	for _, next := range Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session is the in-progress booking draft of one user.
type Session struct {
	UserID       int64     `json:"user_id"`
	ChatID       int64     `json:"chat_id"`
	Step         Step      `json:"step"`
	Name         string    `json:"name,omitempty"`
	District     string    `json:"district,omitempty"`
	Street       string    `json:"street,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	SelectedDate string    `json:"selected_date,omitempty"`
	WeekOffset   int       `json:"week_offset,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSession returns an empty session parked at the menu.
func NewSession(userID, chatID int64) *Session {
	return &Session{UserID: userID, ChatID: chatID, Step: StepMenu}
}

// Days returns the booked duration, 1 when unset.
func (s *Session) Days() int {
	if s.Duration <= 0 {
		return 1
	}
	return s.Duration
}

// Address combines district and street the way the calendar stores it.
func (s *Session) Address() string {
	return s.District + " - " + s.Street
}

// Complete reports whether every field needed to confirm is filled.
func (s *Session) Complete() bool {
	return s.Name != "" && s.District != "" && s.Street != "" &&
		s.Phone != "" && s.SelectedDate != ""
}

// ResetDraft clears every draft field and keeps the identity.
func (s *Session) ResetDraft() {
	*s = Session{UserID: s.UserID, ChatID: s.ChatID, Step: s.Step}
}

// Clone returns an independent copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// DayOption is one rendered day of the availability window.
type DayOption struct {
	Date    time.Time
	Label   string
	Enabled bool
}
