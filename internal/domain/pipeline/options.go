package pipeline

import (
	"time"

	"github.com/okian/interviewsched/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithDefaultTimezone sets the candidate timezone used when a request has none.
func WithDefaultTimezone(loc *time.Location) Option {
	return func(p *Pipeline) {
		if loc != nil {
			p.defaultTZ = loc
		}
	}
}

// WithDefaultRange sets how many days past the start date a request searches
// when it has no end date.
func WithDefaultRange(days int) Option {
	return func(p *Pipeline) {
		if days >= 0 {
			p.rangeDays = days
		}
	}
}

// WithMaxDuration caps the interview length, normally the workday length.
func WithMaxDuration(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.maxDuration = d
		}
	}
}

// WithPreviewTopN sets the default number of preview recommendations.
func WithPreviewTopN(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.topN = n
		}
	}
}

// WithCommitGuard enables per-interviewer serialisation of commits with a
// conflict and capacity re-check under the lock.
func WithCommitGuard(enabled bool) Option {
	return func(p *Pipeline) {
		if enabled {
			p.guard = newKeyedMutex()
		} else {
			p.guard = nil
		}
	}
}

// WithEventCreator creates a calendar event after each commit.
func WithEventCreator(c EventCreator) Option {
	return func(p *Pipeline) {
		p.events = c
	}
}

// WithNotifier adds a post-commit notifier.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifiers = append(p.notifiers, n)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRequestIDGenerator overrides request id generation.
func WithRequestIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.newRequestID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}
