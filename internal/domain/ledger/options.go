package ledger

import (
	"time"

	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithPersister sets the document store loaded at startup and rewritten after each append.
func WithPersister(p Persister) Option {
	return func(l *Ledger) {
		l.persister = p
	}
}

// WithRoster sets a configured roster. A non-empty roster replaces the persisted one.
func WithRoster(roster []model.Interviewer) Option {
	return func(l *Ledger) {
		l.configured = append([]model.Interviewer(nil), roster...)
	}
}

// WithDemoRoster seeds the demo roster when neither configuration nor the
// persisted document supplies one.
func WithDemoRoster(enabled bool) Option {
	return func(l *Ledger) {
		l.demo = enabled
	}
}

// WithCapacityWindow sets the rolling window, in days, compared against weekly capacity.
func WithCapacityWindow(days int) Option {
	return func(l *Ledger) {
		if days > 0 {
			l.capacityDays = days
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}
