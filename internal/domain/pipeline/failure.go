package pipeline

import (
	"fmt"
	"strings"

	"github.com/okian/interviewsched/internal/domain/availability"
	"github.com/okian/interviewsched/internal/domain/model"
)

// classify picks the failure reason for a request that produced no
// recommendation. Checks run from the most to the least specific cause.
func classify(active []model.Interviewer, res availability.Resolution, ranking Ranking) *model.Failure {
	if len(active) == 0 {
		return &model.Failure{
			Code:    model.FailureNoInterviewers,
			Message: "No active interviewers are configured.",
		}
	}
	if len(res.Compatible) == 0 {
		return &model.Failure{
			Code:    model.FailureNoCompatible,
			Message: "No interviewer shares working hours with the candidate's timezone.",
		}
	}

	if full := compatibleAtCapacity(res.Compatible, ranking.Workloads); len(full) == len(res.Compatible) {
		return capacityFailure("All interviewers are at weekly capacity: ", full)
	}
	if len(ranking.Capacity) > 0 {
		// Others are compatible but had no free slot; only the full ones are listed.
		return capacityFailure("All available interviewers are at weekly capacity: ", ranking.Capacity)
	}

	if len(active) == 1 {
		return &model.Failure{
			Code:    model.FailureSingleUnavailable,
			Message: fmt.Sprintf("%s has no free slot in the requested range.", active[0].Name),
		}
	}
	return &model.Failure{
		Code:    model.FailureNoAvailableSlot,
		Message: "No available slots found. Try expanding the date range.",
	}
}

// compatibleAtCapacity returns capacity details for compatible interviewers
// that are at their weekly cap.
func compatibleAtCapacity(compatible []string, workloads []model.Workload) []model.CapacityDetail {
	byID := make(map[string]model.Workload, len(workloads))
	for _, w := range workloads {
		byID[w.InterviewerID] = w
	}
	var out []model.CapacityDetail
	for _, id := range compatible {
		w, ok := byID[id]
		if !ok || !w.AtCapacity {
			continue
		}
		out = append(out, model.CapacityDetail{
			InterviewerID:   w.InterviewerID,
			InterviewerName: w.InterviewerName,
			CountThisWeek:   w.CountThisWeek,
			MaxPerWeek:      w.MaxPerWeek,
		})
	}
	return out
}

func capacityFailure(prefix string, details []model.CapacityDetail) *model.Failure {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, fmt.Sprintf("%s (%d/%d this week)", d.InterviewerName, d.CountThisWeek, d.MaxPerWeek))
	}
	return &model.Failure{
		Code:     model.FailureAllAtCapacity,
		Message:  prefix + strings.Join(parts, ", "),
		Capacity: details,
	}
}

func slotTaken(iv model.Interviewer) *model.Failure {
	return &model.Failure{
		Code:    model.FailureSlotTaken,
		Message: fmt.Sprintf("%s was booked by a concurrent request; please retry.", iv.Name),
	}
}
