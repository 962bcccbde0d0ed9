package model

import "time"

// Status is the lifecycle state of an interview record.
type Status string

// StatusScheduled is the only status the pipeline writes.
const StatusScheduled Status = "scheduled"

// InterviewRecord is an append-only entry in the interview history.
type InterviewRecord struct {
	ID              string    `json:"id"`
	CandidateName   string    `json:"candidate_name"`
	CandidateEmail  string    `json:"candidate_email"`
	InterviewType   string    `json:"interview_type"`
	ScheduledAt     time.Time `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes"`
	InterviewerID   string    `json:"assigned_interviewer_id"`
	InterviewerName string    `json:"assigned_interviewer_name"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	Notes           string    `json:"notes"`
}

// End returns the instant the interview finishes.
func (r InterviewRecord) End() time.Time {
	return r.ScheduledAt.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Interval returns the busy interval the interview occupies.
func (r InterviewRecord) Interval() Interval {
	return Interval{Start: r.ScheduledAt, End: r.End()}
}
