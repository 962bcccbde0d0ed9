package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/interviewsched/internal/domain/model"
)

// justify explains why an interviewer was picked for a slot.
func justify(r model.RankedInterviewer, slot model.TimeSlot, candidate *time.Location, windowDays int) string {
	name := r.InterviewerName
	reasons := make([]string, 0, 3)

	switch {
	case r.Deviation < 0:
		reasons = append(reasons, fmt.Sprintf(
			"%s has conducted %d interviews in the last %s, which is %.1f below the team average",
			name, r.CountInWindow, windowPhrase(windowDays), math.Abs(r.Deviation)))
	case r.Deviation == 0:
		reasons = append(reasons, name+" has conducted exactly the fair share of interviews")
	default:
		reasons = append(reasons, name+" is slightly above average but is the best available option")
	}
	if r.SpecialtyMatch {
		reasons = append(reasons, "their specialty matches this interview type")
	}
	local := slot.Start.In(candidate)
	reasons = append(reasons, fmt.Sprintf("available at %s on %s",
		local.Format("03:04 PM MST"), local.Format(time.DateOnly)))

	return "Recommended " + name + " because: " + strings.Join(reasons, "; ") + "."
}

func windowPhrase(days int) string {
	switch {
	case days == 7:
		return "week"
	case days%7 == 0:
		return fmt.Sprintf("%d weeks", days/7)
	case days == 1:
		return "day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}
