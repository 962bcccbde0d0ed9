package loadtest

import (
	"strconv"

	"github.com/google/uuid"
)

// generateRequests builds n requests with unique candidate emails, cycling
// through the configured interview types.
func generateRequests(cfg Config) []Request {
	out := make([]Request, cfg.Requests)
	for i := range out {
		id := uuid.NewString()
		out[i] = Request{
			CandidateName:     "Load Candidate " + strconv.Itoa(i+1),
			CandidateEmail:    "candidate-" + id[:8] + "@example.com",
			InterviewType:     cfg.Types[i%len(cfg.Types)],
			StartDate:         cfg.StartDate,
			EndDate:           cfg.EndDate,
			CandidateTimezone: cfg.Timezone,
		}
	}
	return out
}
