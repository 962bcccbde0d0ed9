// Package model contains domain models passed between layers.
package model

import "time"

// Interviewer is a roster member who can be assigned to conduct an interview.
type Interviewer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	CalendarID string `json:"calendar_id"` // free/busy key; falls back to Email
	Timezone   string `json:"timezone"`    // IANA name, e.g. "America/New_York"
	Specialty  string `json:"specialty"`
	MaxPerWeek int    `json:"max_interviews_per_week"`
	Active     bool   `json:"active"`
}

// Calendar returns the identifier used against the calendar provider.
func (i Interviewer) Calendar() string {
	if i.CalendarID != "" {
		return i.CalendarID
	}
	return i.Email
}

// Location loads the interviewer's timezone.
func (i Interviewer) Location() (*time.Location, error) {
	return time.LoadLocation(i.Timezone)
}
