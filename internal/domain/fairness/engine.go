// Package fairness ranks available interviewers so that interview load
// stays balanced across the roster.
package fairness

import (
	"context"
	"slices"
	"sort"

	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
)

const (
	defaultWindowDays = 21
	defaultBonus      = 1.5

	// atCapacityScore is the score of an at-capacity interviewer that was not
	// excluded. No bonus is applied on top of it.
	atCapacityScore = -999
)

// WorkloadSource derives workloads from the live ledger.
type WorkloadSource interface {
	WorkloadSnapshot(days int) []model.Workload
}

// Engine scores and orders interviewers.
type Engine struct {
	source      WorkloadSource
	windowDays  int
	bonus       float64
	exclude     bool
	specialties map[string][]string
	log         logger.Logger
}

// New creates an Engine reading workloads from source.
func New(source WorkloadSource, opts ...Option) *Engine {
	e := &Engine{
		source:      source,
		windowDays:  defaultWindowDays,
		bonus:       defaultBonus,
		exclude:     true,
		specialties: map[string][]string{},
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the fairness window in days.
func (e *Engine) Window() int { return e.windowDays }

// Snapshot returns the current workload of every active interviewer.
func (e *Engine) Snapshot() []model.Workload {
	return e.source.WorkloadSnapshot(e.windowDays)
}

// Rank orders ids best-first for the interview type using a fresh snapshot.
func (e *Engine) Rank(ctx context.Context, ids []string, interviewType string) ([]model.RankedInterviewer, error) {
	return e.Session().Rank(ctx, ids, interviewType)
}

// Session captures one snapshot so that every slot of a single request is
// ranked against the same ledger state.
func (e *Engine) Session() *Session {
	snap := e.Snapshot()
	byID := make(map[string]model.Workload, len(snap))
	for _, w := range snap {
		byID[w.InterviewerID] = w
	}
	return &Session{engine: e, snapshot: snap, byID: byID}
}

// Session ranks against a fixed snapshot.
type Session struct {
	engine   *Engine
	snapshot []model.Workload
	byID     map[string]model.Workload
}

// Workloads returns the snapshot in roster order.
func (s *Session) Workloads() []model.Workload {
	return append([]model.Workload(nil), s.snapshot...)
}

// Workload returns one interviewer's workload.
func (s *Session) Workload(id string) (model.Workload, bool) {
	w, ok := s.byID[id]
	return w, ok
}

// Rank scores ids and returns them sorted by score descending, ties broken
// by interviewer id ascending. Ids missing from the snapshot are ignored.
// When every known id is at capacity and exclusion is on, the error is a
// *CapacityError; when nothing is rankable it is ErrNoCandidates.
func (s *Session) Rank(ctx context.Context, ids []string, interviewType string) ([]model.RankedInterviewer, error) {
	e := s.engine
	preferred := e.specialties[interviewType]

	ranked := make([]model.RankedInterviewer, 0, len(ids))
	var full []model.CapacityDetail
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		w, ok := s.byID[id]
		if !ok {
			continue
		}

		if w.AtCapacity {
			full = append(full, model.CapacityDetail{
				InterviewerID:   w.InterviewerID,
				InterviewerName: w.InterviewerName,
				CountThisWeek:   w.CountThisWeek,
				MaxPerWeek:      w.MaxPerWeek,
			})
			if e.exclude {
				e.log.Debug(ctx, "interviewer at capacity, excluded",
					logger.String("interviewer_id", id),
					logger.Int("weekly", w.CountThisWeek),
					logger.Int("max", w.MaxPerWeek),
				)
				continue
			}
			ranked = append(ranked, model.RankedInterviewer{Workload: w, Score: atCapacityScore})
			continue
		}

		r := model.RankedInterviewer{Workload: w, Score: w.BaseScore}
		if len(preferred) > 0 && slices.Contains(preferred, w.Specialty) {
			r.SpecialtyMatch = true
			r.Score += e.bonus
		}
		ranked = append(ranked, r)
	}

	if len(ranked) == 0 {
		if len(full) > 0 {
			return nil, &CapacityError{Details: full}
		}
		return nil, ErrNoCandidates
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].InterviewerID < ranked[j].InterviewerID
	})
	return ranked, nil
}
