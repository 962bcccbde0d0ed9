package model

import "time"

// ScheduleRequest asks the pipeline to find and commit one interview.
// Zero From/To and an empty CandidateTimezone take the service defaults.
type ScheduleRequest struct {
	CandidateName     string
	CandidateEmail    string
	InterviewType     string
	DurationMinutes   int
	From              time.Time
	To                time.Time
	CandidateTimezone string
}

// PreviewRequest runs availability and ranking without committing.
type PreviewRequest struct {
	InterviewType     string
	DurationMinutes   int
	From              time.Time
	To                time.Time
	CandidateTimezone string
	TopN              int
}

// Stage is a pipeline state.
type Stage string

// Pipeline states.
const (
	StagePending              Stage = "PENDING"
	StageAvailabilityResolved Stage = "AVAILABILITY_RESOLVED"
	StageRanked               Stage = "RANKED"
	StageCommitted            Stage = "COMMITTED"
	StageFailed               Stage = "FAILED"
)

// FailureCode classifies why a request could not be scheduled.
type FailureCode string

// Failure codes.
const (
	FailureNoInterviewers    FailureCode = "no_interviewers"
	FailureNoCompatible      FailureCode = "no_compatible_interviewer"
	FailureSingleUnavailable FailureCode = "single_interviewer_unavailable"
	FailureAllAtCapacity     FailureCode = "all_at_capacity"
	FailureNoAvailableSlot   FailureCode = "no_available_slot"
	FailureSlotTaken         FailureCode = "slot_taken"
)

// CapacityDetail reports one interviewer's weekly load against their cap.
type CapacityDetail struct {
	InterviewerID   string `json:"interviewer_id"`
	InterviewerName string `json:"name"`
	CountThisWeek   int    `json:"interviews_this_week"`
	MaxPerWeek      int    `json:"max_per_week"`
}

// Failure is a user-visible scheduling failure.
type Failure struct {
	Code     FailureCode      `json:"code"`
	Message  string           `json:"message"`
	Capacity []CapacityDetail `json:"capacity,omitempty"`
}

// AvailabilitySource tells whether slots came from real calendars.
type AvailabilitySource string

// Availability sources.
const (
	SourceCalendar  AvailabilitySource = "calendar"
	SourceSimulated AvailabilitySource = "simulated"
	SourceMixed     AvailabilitySource = "mixed"
)

// Recommendation is a ranked slot with its chosen interviewer.
type Recommendation struct {
	Slot          TimeSlot            `json:"slot"`
	Interviewer   Interviewer         `json:"interviewer"`
	Score         float64             `json:"score"`
	Justification string              `json:"justification"`
	Ranked        []RankedInterviewer `json:"ranked_interviewers"`
}

// CalendarEvent is what the calendar provider returns after creating an event.
type CalendarEvent struct {
	EventID          string            `json:"event_id"`
	JoinLink         string            `json:"join_link,omitempty"`
	AttendeeStatuses map[string]string `json:"attendee_statuses,omitempty"`
}

// Result is the outcome of one scheduling request.
type Result struct {
	RequestID      string             `json:"request_id"`
	Stage          Stage              `json:"stage"`
	Interview      *InterviewRecord   `json:"interview,omitempty"`
	Recommendation *Recommendation    `json:"recommendation,omitempty"`
	Failure        *Failure           `json:"failure,omitempty"`
	CalendarEvent  *CalendarEvent     `json:"calendar_event,omitempty"`
	Source         AvailabilitySource `json:"availability_source"`
	SlotsFound     int                `json:"total_slots_found"`
}

// Committed reports whether the request produced an interview record.
func (r Result) Committed() bool {
	return r.Stage == StageCommitted
}

// Preview is the non-committing variant of Result.
type Preview struct {
	Recommendations []Recommendation   `json:"recommendations"`
	SlotsFound      int                `json:"total_slots_found"`
	Workload        []Workload         `json:"workload"`
	Source          AvailabilitySource `json:"availability_source"`
	Failure         *Failure           `json:"failure,omitempty"`
}
