// Package loadtest drives a running scheduler over HTTP with synthetic
// candidates and checks that the resulting workload stayed within capacity.
package loadtest

import (
	"errors"
	"time"
)

// Default run parameters.
const (
	DefaultRequests = 40
	DefaultWorkers  = 4
	DefaultTimeout  = 30 * time.Second
)

// DefaultTypes is the interview type mix submitted when none is given.
var DefaultTypes = []string{"tech_screen", "coding", "system_design", "ml_ai", "data"}

// Error constants.
var (
	ErrUnhealthy    = errors.New("service is not healthy")
	ErrOverCapacity = errors.New("interviewer booked past capacity")
	ErrNoRequests   = errors.New("no requests to submit")
)

// Config holds configuration for one load run.
type Config struct {
	BaseURL    string        // base URL of the service
	Requests   int           // number of schedule requests to submit
	Workers    int           // concurrent submitters
	Timeout    time.Duration // per HTTP request
	Types      []string      // interview types, cycled
	StartDate  string        // optional YYYY-MM-DD
	EndDate    string        // optional YYYY-MM-DD
	Timezone   string        // candidate timezone, empty for the server default
	WindowDays int           // workload window read after the run, 0 for the server default
	OutputFile string        // optional JSON dump of the generated requests
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Requests <= 0 {
		out.Requests = DefaultRequests
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if len(out.Types) == 0 {
		out.Types = DefaultTypes
	}
	return out
}

// Request is the POST /interviews body.
type Request struct {
	CandidateName     string `json:"candidate_name"`
	CandidateEmail    string `json:"candidate_email"`
	InterviewType     string `json:"interview_type"`
	DurationMinutes   int    `json:"duration_minutes,omitempty"`
	StartDate         string `json:"start_date,omitempty"`
	EndDate           string `json:"end_date,omitempty"`
	CandidateTimezone string `json:"candidate_timezone,omitempty"`
}

// Workload is the subset of a workload row the run checks.
type Workload struct {
	InterviewerID string `json:"interviewer_id"`
	CountThisWeek int    `json:"interviews_this_week"`
	CountInWindow int    `json:"interviews_in_window"`
	MaxPerWeek    int    `json:"max_per_week"`
}

// Stats counts submission outcomes.
type Stats struct {
	Submitted int            `json:"submitted"`
	Committed int            `json:"committed"`
	Rejected  int            `json:"rejected"`
	Failed    int            `json:"failed"`
	Failures  map[string]int `json:"failures"`
	Duration  time.Duration  `json:"duration"`
}

// Report is the outcome of a run.
type Report struct {
	Stats          Stats          `json:"stats"`
	PerInterviewer map[string]int `json:"per_interviewer"`
	Spread         int            `json:"spread"`
}
