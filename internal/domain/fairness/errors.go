package fairness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/interviewsched/internal/domain/model"
)

// Sentinel kinds for ranking errors.
var (
	ErrNoCandidates  = errors.New("no rankable interviewers")
	ErrAllAtCapacity = errors.New("all interviewers at weekly capacity")
)

// CapacityError reports that every candidate was excluded for being at
// capacity. It matches ErrAllAtCapacity with errors.Is.
type CapacityError struct {
	Details []model.CapacityDetail
}

func (e *CapacityError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, fmt.Sprintf("%s (%d/%d this week)", d.InterviewerName, d.CountThisWeek, d.MaxPerWeek))
	}
	return ErrAllAtCapacity.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap returns ErrAllAtCapacity.
func (e *CapacityError) Unwrap() error { return ErrAllAtCapacity }
