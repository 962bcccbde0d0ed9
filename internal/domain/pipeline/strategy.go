package pipeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/okian/interviewsched/internal/domain/fairness"
	"github.com/okian/interviewsched/internal/domain/model"
)

// RankInput is what a strategy decides on.
type RankInput struct {
	InterviewType string
	Slots         []model.TimeSlot
	Candidate     *time.Location
}

// Ranking is a strategy's decision. Recommendations are best-first.
type Ranking struct {
	Recommendations []model.Recommendation
	// Workloads is the snapshot the decision was made on.
	Workloads []model.Workload
	// Capacity lists interviewers excluded for capacity in at least one slot.
	Capacity []model.CapacityDetail
}

// Strategy turns resolved slots into ranked recommendations.
type Strategy interface {
	Name() string
	Rank(ctx context.Context, in RankInput) (Ranking, error)
}

// Roster looks up interviewers by id.
type Roster interface {
	Interviewer(id string) (model.Interviewer, bool)
}

// RuleBased ranks every slot with the fairness engine and keeps the
// top-ranked interviewer as the slot's representative.
type RuleBased struct {
	engine *fairness.Engine
	roster Roster
}

// NewRuleBased creates the deterministic strategy.
func NewRuleBased(engine *fairness.Engine, roster Roster) *RuleBased {
	return &RuleBased{engine: engine, roster: roster}
}

// Name implements Strategy.
func (s *RuleBased) Name() string { return "rule_based" }

// Rank implements Strategy. Slots are ordered by their representative score
// descending; equal scores keep the earlier slot first.
func (s *RuleBased) Rank(ctx context.Context, in RankInput) (Ranking, error) {
	session := s.engine.Session()
	out := Ranking{Workloads: session.Workloads()}
	seenFull := make(map[string]struct{})

	for _, slot := range in.Slots {
		ids := slot.AvailableIDs()
		if len(ids) == 0 {
			continue
		}
		ranked, err := session.Rank(ctx, ids, in.InterviewType)
		if err != nil {
			var capErr *fairness.CapacityError
			if errors.As(err, &capErr) {
				for _, d := range capErr.Details {
					if _, ok := seenFull[d.InterviewerID]; !ok {
						seenFull[d.InterviewerID] = struct{}{}
						out.Capacity = append(out.Capacity, d)
					}
				}
			}
			continue
		}

		best := ranked[0]
		iv, ok := s.roster.Interviewer(best.InterviewerID)
		if !ok {
			continue
		}
		out.Recommendations = append(out.Recommendations, model.Recommendation{
			Slot:          slot,
			Interviewer:   iv,
			Score:         best.Score,
			Justification: justify(best, slot, in.Candidate, s.engine.Window()),
			Ranked:        ranked,
		})
	}

	sort.SliceStable(out.Recommendations, func(i, j int) bool {
		a, b := out.Recommendations[i], out.Recommendations[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Slot.Start.Before(b.Slot.Start)
	})
	return out, nil
}
