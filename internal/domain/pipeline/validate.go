package pipeline

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const defaultDurationMinutes = 60

// window is a validated search window.
type window struct {
	from     time.Time
	to       time.Time
	duration time.Duration
	loc      *time.Location
}

func (p *Pipeline) validateSchedule(name, email, interviewType string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: candidate name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: candidate email is required", ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: candidate email %q: %v", ErrInvalidRequest, email, err)
	}
	if strings.TrimSpace(interviewType) == "" {
		return fmt.Errorf("%w: interview type is required", ErrInvalidRequest)
	}
	return nil
}

// resolveWindow applies defaults and checks the timing fields of a request.
func (p *Pipeline) resolveWindow(minutes int, from, to time.Time, tz string) (window, error) {
	loc := p.defaultTZ
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return window{}, fmt.Errorf("%w: candidate timezone %q: %v", ErrInvalidRequest, tz, err)
		}
		loc = l
	}

	if minutes == 0 {
		minutes = defaultDurationMinutes
	}
	d := time.Duration(minutes) * time.Minute
	if minutes < 0 || d > p.maxDuration {
		return window{}, fmt.Errorf("%w: duration %d minutes outside 1..%d",
			ErrInvalidRequest, minutes, int(p.maxDuration/time.Minute))
	}

	// From and To are calendar dates; their wall date is kept and moved
	// into the candidate's timezone.
	if from.IsZero() {
		from = p.now().In(loc)
	}
	from = dateIn(from, loc)
	if to.IsZero() {
		to = from.AddDate(0, 0, p.rangeDays)
	}
	to = dateIn(to, loc)
	if to.Before(from) {
		return window{}, fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidRequest, to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return window{from: from, to: to, duration: d, loc: loc}, nil
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
