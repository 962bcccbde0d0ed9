// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and SCHED_* environment variables over the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Ledger backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Calendar providers.
const (
	CalendarNone   = "none"
	CalendarGoogle = "google"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DefaultTimezone is used when a request omits the candidate timezone.
	DefaultTimezone string `koanf:"default_timezone"`

	// WorkdayStartHour and WorkdayEndHour bound the local working window.
	WorkdayStartHour int `koanf:"workday_start_hour"`
	WorkdayEndHour   int `koanf:"workday_end_hour"`

	// DefaultRangeDays is the search range used when a request omits its end date.
	DefaultRangeDays int `koanf:"default_range_days"`

	// FairnessWindowDays is the rolling window for fair share and deviation.
	FairnessWindowDays int `koanf:"fairness_window_days"`

	// CapacityWindowDays is the rolling window compared against max_per_week.
	CapacityWindowDays int `koanf:"capacity_window_days"`

	// SpecialtyBonus is added to the score of an interviewer whose specialty matches.
	SpecialtyBonus float64 `koanf:"specialty_bonus"`

	// ExcludeAtCapacity drops at-capacity interviewers from ranking instead of ranking them last.
	ExcludeAtCapacity bool `koanf:"exclude_at_capacity"`

	// SpecialtyMap maps an interview type to its preferred specialties.
	// An empty list means any specialty.
	SpecialtyMap map[string][]string `koanf:"specialty_map"`

	// DefaultMaxPerWeek applies to roster entries that do not set max_per_week.
	DefaultMaxPerWeek int `koanf:"default_max_per_week"`

	// PreviewTopN caps the number of recommendations returned by preview.
	PreviewTopN int `koanf:"preview_top_n"`

	// CalendarProvider selects the busy-interval source: none or google.
	CalendarProvider string `koanf:"calendar_provider"`

	// CalendarCredentialsFile is a service account or OAuth credentials JSON file.
	CalendarCredentialsFile string `koanf:"calendar_credentials_file"`

	// CalendarTimeoutMS bounds the free/busy fan-out.
	CalendarTimeoutMS int `koanf:"calendar_timeout_ms"`

	// CalendarCreateEvents creates a calendar event after each commit.
	CalendarCreateEvents bool `koanf:"calendar_create_events"`

	// CalendarOrganizer is the calendar interview events are created on.
	CalendarOrganizer string `koanf:"calendar_organizer"`

	// CalendarMeetLinks requests a video conference link on each event.
	CalendarMeetLinks bool `koanf:"calendar_meet_links"`

	// LedgerBackend selects the persistence document store: json or sqlite.
	LedgerBackend string `koanf:"ledger_backend"`

	// LedgerPath is the JSON file or SQLite database path. Empty keeps the ledger in memory.
	LedgerPath string `koanf:"ledger_path"`

	// DemoRoster seeds five demo interviewers when no roster is configured or persisted.
	DemoRoster bool `koanf:"demo_roster"`

	// Roster lists interviewers. When set it replaces the persisted roster.
	Roster []Interviewer `koanf:"roster"`

	// SlackToken and SlackChannel enable the post-commit Slack announcement.
	SlackToken   string `koanf:"slack_token"`
	SlackChannel string `koanf:"slack_channel"`

	// NotifyWorkers delivers announcements in the background when positive.
	// Zero delivers them inline before the scheduling call returns.
	NotifyWorkers int `koanf:"notify_workers"`

	// NotifyQueueSize bounds the announcements waiting for a worker.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// WorkloadRefreshSchedule is a cron spec for refreshing workload gauges.
	WorkloadRefreshSchedule string `koanf:"workload_refresh_schedule"`

	// CommitGuard serialises commits per interviewer and re-checks conflicts under the lock.
	CommitGuard bool `koanf:"commit_guard"`
}

// Interviewer is a roster entry as written in configuration.
type Interviewer struct {
	ID         string `koanf:"id"`
	Name       string `koanf:"name"`
	Email      string `koanf:"email"`
	CalendarID string `koanf:"calendar_id"`
	Timezone   string `koanf:"timezone"`
	Specialty  string `koanf:"specialty"`
	MaxPerWeek int    `koanf:"max_per_week"`
	// Active defaults to true when omitted.
	Active *bool `koanf:"active"`
}

// IsActive reports whether the entry is active.
func (i Interviewer) IsActive() bool {
	return i.Active == nil || *i.Active
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DefaultTimezone:    "America/Los_Angeles",
		WorkdayStartHour:   9,
		WorkdayEndHour:     17,
		DefaultRangeDays:   7,
		FairnessWindowDays: 21,
		CapacityWindowDays: 7,
		SpecialtyBonus:     1.5,
		ExcludeAtCapacity:  true,
		SpecialtyMap: map[string][]string{
			"tech_screen":   {},
			"system_design": {"Platform", "Cloud Architecture"},
			"coding":        {"Data Engineering", "Platform"},
			"architecture":  {"Cloud Architecture", "Platform"},
			"ml_ai":         {"ML/AI", "Data Science"},
			"data":          {"Data Engineering", "Data Science"},
		},
		DefaultMaxPerWeek:       5,
		PreviewTopN:             5,
		CalendarProvider:        CalendarNone,
		CalendarTimeoutMS:       5000,
		CalendarCreateEvents:    true,
		CalendarOrganizer:       "primary",
		CalendarMeetLinks:       true,
		NotifyWorkers:           2,
		NotifyQueueSize:         100,
		LedgerBackend:           BackendJSON,
		DemoRoster:              true,
		WorkloadRefreshSchedule: "@every 1m",
		CommitGuard:             true,
	}
}

// CalendarTimeout returns the free/busy deadline as a duration.
func (c *Config) CalendarTimeout() time.Duration {
	return time.Duration(c.CalendarTimeoutMS) * time.Millisecond
}
