package availability

import "time"

// Window is a working-hour overlap in the interviewer's local whole hours,
// half-open: [StartHour, EndHour).
type Window struct {
	StartHour int
	EndHour   int
}

// Empty reports whether the window has no bookable hour.
func (w Window) Empty() bool {
	return w.StartHour >= w.EndHour
}

// Fits reports whether a meeting of d starting on hour h ends inside the window.
func (w Window) Fits(h int, d time.Duration) bool {
	return h >= w.StartHour && time.Duration(h)*time.Hour+d <= time.Duration(w.EndHour)*time.Hour
}

// Overlap intersects the interviewer's and the candidate's working hours on
// the calendar date of day. Each window is anchored in its own timezone and
// the intersection is taken on absolute instants, so unequal offsets and DST
// transitions are handled by the tz database rather than by hour arithmetic.
// A partial hour at either edge is not bookable.
func Overlap(day time.Time, interviewer, candidate *time.Location, startHour, endHour int) Window {
	y, m, d := day.Date()
	start := latest(
		time.Date(y, m, d, startHour, 0, 0, 0, interviewer),
		time.Date(y, m, d, startHour, 0, 0, 0, candidate),
	)
	end := earliest(
		time.Date(y, m, d, endHour, 0, 0, 0, interviewer),
		time.Date(y, m, d, endHour, 0, 0, 0, candidate),
	)
	if !start.Before(end) {
		return Window{}
	}

	ls := start.In(interviewer)
	sh := localHour(ls, y, m, d)
	if ls.Minute() != 0 || ls.Second() != 0 {
		sh++
	}
	eh := localHour(end.In(interviewer), y, m, d)
	if sh >= eh {
		return Window{}
	}
	return Window{StartHour: sh, EndHour: eh}
}

// localHour is t's hour counted from midnight of y-m-d, so 24 means the
// following midnight.
func localHour(t time.Time, y int, m time.Month, d int) int {
	h := t.Hour()
	if ty, tm, td := t.Date(); ty != y || tm != m || td != d {
		h += 24
	}
	return h
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
