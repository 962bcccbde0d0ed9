package availability

import (
	"hash/fnv"
	"strconv"
	"time"
)

const (
	simBaseProbability = 0.8
	simLoadPenalty     = 0.02
	simMinProbability  = 0.5
	simMaxProbability  = 0.95
	simResolution      = 10_000
)

// simulatedFree stands in for a calendar. About 80% of hours are free, a bit
// less for busier interviewers. The draw is a pure function of
// (date, hour, interviewer), so repeated calls agree.
func simulatedFree(day time.Time, hour int, interviewerID string, recentCount int) bool {
	p := simBaseProbability - simLoadPenalty*float64(recentCount)
	p = max(simMinProbability, min(simMaxProbability, p))

	h := fnv.New64a()
	_, _ = h.Write([]byte(day.Format(time.DateOnly)))
	_, _ = h.Write([]byte{'_'})
	_, _ = h.Write([]byte(strconv.Itoa(hour)))
	_, _ = h.Write([]byte{'_'})
	_, _ = h.Write([]byte(interviewerID))

	draw := float64(h.Sum64()%simResolution) / simResolution
	return draw < p
}
