// Package availability computes bookable time slots from working-hour
// overlap, calendar busy intervals and existing bookings.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
	"github.com/okian/interviewsched/pkg/metrics"
)

const (
	defaultStartHour = 9
	defaultEndHour   = 17
	defaultTimeout   = 5 * time.Second
	defaultLoadDays  = 21

	displayLayout = "Mon Jan 2 03:04 PM MST"
)

// Calendar reports busy intervals per calendar id.
type Calendar interface {
	QueryFreeBusy(ctx context.Context, calendarIDs []string, start, end time.Time) (map[string][]model.Interval, error)
}

// Bookings is the ledger view the resolver needs.
type Bookings interface {
	Upcoming() []model.InterviewRecord
	InterviewCounts(days int) map[string]int
}

// Request describes one resolution. From and To select calendar dates in
// the candidate's timezone, both inclusive.
type Request struct {
	Interviewers []model.Interviewer
	From         time.Time
	To           time.Time
	Duration     time.Duration
	Candidate    *time.Location
}

// Resolution is the resolver output.
type Resolution struct {
	// Slots is time-ordered and every slot has at least one available interviewer.
	Slots []model.TimeSlot
	// Compatible and Incompatible split the requested interviewers by
	// working-hour overlap on the reference weekday.
	Compatible   []string
	Incompatible []string
	// Simulated lists compatible interviewers resolved without a calendar.
	Simulated []string
	Source    model.AvailabilitySource
}

// Resolver produces bookable time slots.
type Resolver struct {
	bookings  Bookings
	calendar  Calendar
	startHour int
	endHour   int
	timeout   time.Duration
	loadDays  int
	now       func() time.Time
	log       logger.Logger
}

// New creates a Resolver over the given bookings.
func New(bookings Bookings, opts ...Option) *Resolver {
	r := &Resolver{
		bookings:  bookings,
		startHour: defaultStartHour,
		endHour:   defaultEndHour,
		timeout:   defaultTimeout,
		loadDays:  defaultLoadDays,
		now:       time.Now,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WorkdayLength returns the configured working window.
func (r *Resolver) WorkdayLength() time.Duration {
	return time.Duration(r.endHour-r.startHour) * time.Hour
}

type candidate struct {
	iv  model.Interviewer
	loc *time.Location
}

// busyResult is one interviewer's calendar answer.
type busyResult struct {
	busy      []model.Interval
	simulated bool
}

// Resolve computes the bookable slots for req.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	if req.Duration <= 0 {
		return Resolution{}, ErrInvalidDuration
	}
	if req.Candidate == nil {
		req.Candidate = time.UTC
	}
	days := calendarDays(req.From.In(req.Candidate), req.To.In(req.Candidate))
	if days == nil {
		return Resolution{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			req.From.Format(time.DateOnly), req.To.Format(time.DateOnly))
	}

	var res Resolution
	ref := referenceDay(days)
	compatible := make([]candidate, 0, len(req.Interviewers))
	for _, iv := range req.Interviewers {
		loc, err := iv.Location()
		if err != nil {
			r.log.Warn(ctx, "interviewer timezone invalid, skipping",
				logger.String("interviewer_id", iv.ID), logger.String("timezone", iv.Timezone), logger.Error(err))
			res.Incompatible = append(res.Incompatible, iv.ID)
			continue
		}
		if Overlap(ref, loc, req.Candidate, r.startHour, r.endHour).Empty() {
			res.Incompatible = append(res.Incompatible, iv.ID)
			continue
		}
		res.Compatible = append(res.Compatible, iv.ID)
		compatible = append(compatible, candidate{iv: iv, loc: loc})
	}

	first, last := days[0], days[len(days)-1]
	rangeStart := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, req.Candidate)
	rangeEnd := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, req.Candidate)
	busy := r.fetchBusy(ctx, compatible, rangeStart, rangeEnd)

	booked := make(map[string][]model.Interval)
	for _, rec := range r.bookings.Upcoming() {
		booked[rec.InterviewerID] = append(booked[rec.InterviewerID], rec.Interval())
	}
	var counts map[string]int
	now := r.now()

	set := model.NewSlotSet()
	for i, c := range compatible {
		br := busy[i]
		if br.simulated {
			res.Simulated = append(res.Simulated, c.iv.ID)
			if counts == nil {
				counts = r.bookings.InterviewCounts(r.loadDays)
			}
		}
		for _, day := range days {
			if isWeekend(day) {
				continue
			}
			w := Overlap(day, c.loc, req.Candidate, r.startHour, r.endHour)
			y, m, d := day.Date()
			for h := w.StartHour; w.Fits(h, req.Duration); h++ {
				start := time.Date(y, m, d, h, 0, 0, 0, c.loc)
				if start.Before(now) {
					continue
				}
				slot := model.Interval{Start: start, End: start.Add(req.Duration)}

				free := !slot.OverlapsAny(booked[c.iv.ID])
				switch {
				case !free:
				case br.simulated:
					free = simulatedFree(day, h, c.iv.ID, counts[c.iv.ID])
				default:
					free = !slot.OverlapsAny(br.busy)
				}
				set.Add(slot.Start, slot.End, c.iv.ID, free, br.simulated,
					start.Format(displayLayout), start.In(req.Candidate).Format(displayLayout))
			}
		}
	}

	res.Slots = set.Slots()
	res.Source = r.source(len(compatible), len(res.Simulated))
	r.log.Debug(ctx, "availability resolved",
		logger.Int("compatible", len(res.Compatible)),
		logger.Int("incompatible", len(res.Incompatible)),
		logger.Int("simulated", len(res.Simulated)),
		logger.Int("slots", len(res.Slots)),
	)
	return res, nil
}

// fetchBusy queries the calendar once per interviewer, concurrently, and
// returns answers in the order of cs. Any interviewer whose query fails or
// misses the deadline is marked simulated.
func (r *Resolver) fetchBusy(ctx context.Context, cs []candidate, start, end time.Time) []busyResult {
	out := make([]busyResult, len(cs))
	if r.calendar == nil {
		for i := range out {
			out[i].simulated = true
			metrics.RecordCalendarFallback()
		}
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for i, c := range cs {
		wg.Add(1)
		go func(i int, iv model.Interviewer) {
			defer wg.Done()
			calID := iv.Calendar()
			got, err := r.calendar.QueryFreeBusy(ctx, []string{calID}, start, end)
			if err == nil && ctx.Err() != nil {
				err = ctx.Err()
			}
			if err != nil {
				result := "error"
				if errors.Is(err, context.DeadlineExceeded) {
					result = "timeout"
				}
				metrics.RecordCalendarQuery(result)
				metrics.RecordCalendarFallback()
				r.log.Warn(ctx, "calendar query failed, using simulated availability",
					logger.String("interviewer_id", iv.ID),
					logger.String("calendar_id", calID),
					logger.Error(fmt.Errorf("%w: %w", ErrCalendarUnavailable, err)),
				)
				out[i] = busyResult{simulated: true}
				return
			}
			metrics.RecordCalendarQuery("ok")
			out[i] = busyResult{busy: got[calID]}
		}(i, c.iv)
	}
	wg.Wait()
	return out
}

func (r *Resolver) source(compatible, simulated int) model.AvailabilitySource {
	switch {
	case simulated == 0 && r.calendar != nil:
		return model.SourceCalendar
	case simulated == compatible:
		return model.SourceSimulated
	default:
		return model.SourceMixed
	}
}

// calendarDays returns one marker per calendar date from from to to,
// inclusive, or nil when to is before from. Markers are noon UTC so only
// their date fields matter.
func calendarDays(from, to time.Time) []time.Time {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	first := time.Date(fy, fm, fd, 12, 0, 0, 0, time.UTC)
	last := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	if last.Before(first) {
		return nil
	}
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// referenceDay is the first weekday of the range, or its first day when the
// range holds only a weekend.
func referenceDay(days []time.Time) time.Time {
	for _, d := range days {
		if !isWeekend(d) {
			return d
		}
	}
	return days[0]
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
