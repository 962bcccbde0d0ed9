package availability

import (
	"time"

	"github.com/okian/interviewsched/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithCalendar sets the busy-interval source. Without one every interviewer
// falls back to simulated availability.
func WithCalendar(c Calendar) Option {
	return func(r *Resolver) {
		r.calendar = c
	}
}

// WithWorkingHours sets the local working window applied to both sides.
func WithWorkingHours(startHour, endHour int) Option {
	return func(r *Resolver) {
		if startHour >= 0 && endHour <= 24 && startHour < endHour {
			r.startHour = startHour
			r.endHour = endHour
		}
	}
}

// WithCalendarTimeout bounds the free/busy fan-out. Interviewers whose query
// has not returned by then use simulated availability.
func WithCalendarTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLoadWindow sets the window, in days, used to weight simulated availability.
func WithLoadWindow(days int) Option {
	return func(r *Resolver) {
		if days > 0 {
			r.loadDays = days
		}
	}
}

// WithClock overrides time.Now. Slots starting before now are not offered.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}
