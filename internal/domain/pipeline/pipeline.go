// Package pipeline runs one scheduling request through availability,
// ranking and commit, producing an interview record or a failure reason.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/interviewsched/internal/domain/availability"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
	"github.com/okian/interviewsched/pkg/metrics"
)

const (
	defaultRangeDays   = 7
	defaultTopN        = 5
	defaultMaxDuration = 8 * time.Hour

	notesPrefix = "Auto-scheduled. "
)

// Ledger is the slice of the interviewer ledger the pipeline uses.
type Ledger interface {
	Active() []model.Interviewer
	Record(ctx context.Context, rec model.InterviewRecord) (model.InterviewRecord, error)
	HasConflict(interviewerID string, iv model.Interval) bool
	AtCapacity(interviewerID string) bool
}

// Resolver computes bookable slots.
type Resolver interface {
	Resolve(ctx context.Context, req availability.Request) (availability.Resolution, error)
}

// Event is a calendar invitation for a committed interview.
type Event struct {
	Title       string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Description string
}

// EventCreator books calendar events.
type EventCreator interface {
	CreateEvent(ctx context.Context, ev Event) (model.CalendarEvent, error)
}

// Announcement describes a committed interview to notifiers.
type Announcement struct {
	Interview     model.InterviewRecord
	Interviewer   model.Interviewer
	Justification string
	Event         *model.CalendarEvent
}

// Notifier publishes committed interviews to an external channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a Announcement) error
}

// Pipeline orchestrates availability, ranking and commit for one request
// at a time. It is safe for concurrent use.
type Pipeline struct {
	ledger   Ledger
	resolver Resolver
	strategy Strategy

	defaultTZ   *time.Location
	rangeDays   int
	maxDuration time.Duration
	topN        int
	guard       *keyedMutex

	events    EventCreator
	notifiers []Notifier

	now          func() time.Time
	newRequestID func() string
	log          logger.Logger
}

// New creates a Pipeline. The commit guard is on unless disabled with
// WithCommitGuard(false).
func New(ledger Ledger, resolver Resolver, strategy Strategy, opts ...Option) *Pipeline {
	p := &Pipeline{
		ledger:       ledger,
		resolver:     resolver,
		strategy:     strategy,
		defaultTZ:    time.UTC,
		rangeDays:    defaultRangeDays,
		maxDuration:  defaultMaxDuration,
		topN:         defaultTopN,
		guard:        newKeyedMutex(),
		now:          time.Now,
		newRequestID: func() string { return "req_" + uuid.NewString() },
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule finds the best slot and interviewer for req and records the
// interview. Scheduling failures are reported in the Result; an error is
// returned only for invalid input or an internal fault.
func (p *Pipeline) Schedule(ctx context.Context, req model.ScheduleRequest) (model.Result, error) {
	if err := p.validateSchedule(req.CandidateName, req.CandidateEmail, req.InterviewType); err != nil {
		metrics.RecordSchedulingOutcome("invalid")
		return model.Result{}, err
	}
	w, err := p.resolveWindow(req.DurationMinutes, req.From, req.To, req.CandidateTimezone)
	if err != nil {
		metrics.RecordSchedulingOutcome("invalid")
		return model.Result{}, err
	}

	out := model.Result{RequestID: p.newRequestID(), Stage: model.StagePending}
	log := p.log.With(logger.String("request_id", out.RequestID))
	log.Info(ctx, "scheduling request received",
		logger.String("interview_type", req.InterviewType),
		logger.String("from", w.from.Format(time.DateOnly)),
		logger.String("to", w.to.Format(time.DateOnly)),
		logger.Duration("duration", w.duration),
	)

	active := p.ledger.Active()
	res, ranking, err := p.run(ctx, req.InterviewType, w, active, &out)
	if err != nil {
		metrics.RecordSchedulingOutcome("error")
		return out, err
	}

	recs, full := committable(ranking.Recommendations)
	if len(recs) == 0 {
		ranking.Capacity = mergeCapacity(ranking.Capacity, full)
		return p.fail(ctx, log, out, classify(active, res, ranking)), nil
	}

	best := recs[0]
	start := time.Now()
	record, failure, err := p.commit(ctx, req, best, int(w.duration/time.Minute))
	metrics.RecordStageLatency("commit", float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSchedulingOutcome("error")
		out.Stage = model.StageFailed
		return out, err
	}
	if failure != nil {
		return p.fail(ctx, log, out, failure), nil
	}

	out.Stage = model.StageCommitted
	out.Interview = &record
	out.Recommendation = &best
	metrics.RecordSchedulingOutcome("committed")
	log.Info(ctx, "interview committed",
		logger.String("interview_id", record.ID),
		logger.String("interviewer_id", record.InterviewerID),
		logger.Time("scheduled_at", record.ScheduledAt),
		logger.Float64("score", best.Score),
	)

	out.CalendarEvent = p.createEvent(ctx, log, record, best)
	p.notify(ctx, log, Announcement{
		Interview:     record,
		Interviewer:   best.Interviewer,
		Justification: best.Justification,
		Event:         out.CalendarEvent,
	})
	return out, nil
}

// Preview runs availability and ranking without committing anything.
func (p *Pipeline) Preview(ctx context.Context, req model.PreviewRequest) (model.Preview, error) {
	if req.InterviewType == "" {
		return model.Preview{}, fmt.Errorf("%w: interview type is required", ErrInvalidRequest)
	}
	w, err := p.resolveWindow(req.DurationMinutes, req.From, req.To, req.CandidateTimezone)
	if err != nil {
		return model.Preview{}, err
	}
	metrics.RecordPreview()

	var scratch model.Result
	active := p.ledger.Active()
	res, ranking, err := p.run(ctx, req.InterviewType, w, active, &scratch)
	if err != nil {
		return model.Preview{}, err
	}

	topN := req.TopN
	if topN <= 0 {
		topN = p.topN
	}
	recs := ranking.Recommendations
	if len(recs) > topN {
		recs = recs[:topN]
	}
	out := model.Preview{
		Recommendations: recs,
		SlotsFound:      scratch.SlotsFound,
		Workload:        ranking.Workloads,
		Source:          scratch.Source,
	}
	if out.Recommendations == nil {
		out.Recommendations = []model.Recommendation{}
	}
	if scratch.Stage == model.StageFailed {
		out.Failure = scratch.Failure
	} else if len(recs) == 0 {
		out.Failure = classify(active, res, ranking)
	}
	return out, nil
}

// run executes the availability and ranking stages and advances out.Stage.
// With no active interviewers it stops early and marks out as failed.
func (p *Pipeline) run(ctx context.Context, interviewType string, w window, active []model.Interviewer, out *model.Result) (availability.Resolution, Ranking, error) {
	if len(active) == 0 {
		out.Stage = model.StageFailed
		out.Failure = classify(active, availability.Resolution{}, Ranking{})
		return availability.Resolution{}, Ranking{}, nil
	}

	start := time.Now()
	res, err := p.resolver.Resolve(ctx, availability.Request{
		Interviewers: active,
		From:         w.from,
		To:           w.to,
		Duration:     w.duration,
		Candidate:    w.loc,
	})
	if err != nil {
		return res, Ranking{}, fmt.Errorf("resolve availability: %w", err)
	}
	metrics.RecordStageLatency("availability", float64(time.Since(start).Milliseconds()))
	metrics.RecordSlotsFound(len(res.Slots))
	out.Stage = model.StageAvailabilityResolved
	out.Source = res.Source
	out.SlotsFound = len(res.Slots)

	start = time.Now()
	ranking, err := p.strategy.Rank(ctx, RankInput{
		InterviewType: interviewType,
		Slots:         res.Slots,
		Candidate:     w.loc,
	})
	if err != nil {
		return res, ranking, fmt.Errorf("rank with %s: %w", p.strategy.Name(), err)
	}
	metrics.RecordStageLatency("ranking", float64(time.Since(start).Milliseconds()))
	out.Stage = model.StageRanked
	return res, ranking, nil
}

// commit records the interview. With the guard on, the interviewer's
// conflicts and capacity are re-checked while holding their lock.
func (p *Pipeline) commit(ctx context.Context, req model.ScheduleRequest, rec model.Recommendation, minutes int) (model.InterviewRecord, *model.Failure, error) {
	iv := rec.Interviewer
	if p.guard != nil {
		unlock := p.guard.Lock(iv.ID)
		defer unlock()
		if p.ledger.HasConflict(iv.ID, rec.Slot.Interval()) || p.ledger.AtCapacity(iv.ID) {
			metrics.RecordCommitConflict()
			return model.InterviewRecord{}, slotTaken(iv), nil
		}
	}

	record, err := p.ledger.Record(ctx, model.InterviewRecord{
		CandidateName:   req.CandidateName,
		CandidateEmail:  req.CandidateEmail,
		InterviewType:   req.InterviewType,
		ScheduledAt:     rec.Slot.Start,
		DurationMinutes: minutes,
		InterviewerID:   iv.ID,
		Status:          model.StatusScheduled,
		Notes:           notesPrefix + rec.Justification,
	})
	if err != nil {
		return model.InterviewRecord{}, nil, fmt.Errorf("record interview: %w", err)
	}
	return record, nil, nil
}

func (p *Pipeline) fail(ctx context.Context, log logger.Logger, out model.Result, f *model.Failure) model.Result {
	out.Stage = model.StageFailed
	out.Failure = f
	metrics.RecordSchedulingOutcome("failed")
	metrics.RecordSchedulingFailure(string(f.Code))
	log.Info(ctx, "scheduling failed",
		logger.String("reason", string(f.Code)),
		logger.String("message", f.Message),
	)
	return out
}

func (p *Pipeline) createEvent(ctx context.Context, log logger.Logger, record model.InterviewRecord, rec model.Recommendation) *model.CalendarEvent {
	if p.events == nil {
		return nil
	}
	ev, err := p.events.CreateEvent(ctx, Event{
		Title:       fmt.Sprintf("Interview: %s (%s)", record.CandidateName, record.InterviewType),
		Start:       record.ScheduledAt,
		End:         record.End(),
		Attendees:   []string{rec.Interviewer.Email, record.CandidateEmail},
		Description: rec.Justification,
	})
	if err != nil {
		metrics.RecordNotification("calendar", "error")
		log.Warn(ctx, "calendar event creation failed, interview stays scheduled",
			logger.String("interview_id", record.ID),
			logger.Error(err),
		)
		return nil
	}
	metrics.RecordNotification("calendar", "ok")
	return &ev
}

func (p *Pipeline) notify(ctx context.Context, log logger.Logger, a Announcement) {
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			metrics.RecordNotification(n.Name(), "error")
			log.Warn(ctx, "notification failed",
				logger.String("channel", n.Name()),
				logger.String("interview_id", a.Interview.ID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotification(n.Name(), "ok")
	}
}

// committable drops recommendations whose best interviewer is at capacity.
// That only happens when capacity exclusion is off.
func committable(recs []model.Recommendation) ([]model.Recommendation, []model.CapacityDetail) {
	out := make([]model.Recommendation, 0, len(recs))
	var full []model.CapacityDetail
	for _, r := range recs {
		if len(r.Ranked) > 0 && r.Ranked[0].AtCapacity {
			w := r.Ranked[0].Workload
			full = append(full, model.CapacityDetail{
				InterviewerID:   w.InterviewerID,
				InterviewerName: w.InterviewerName,
				CountThisWeek:   w.CountThisWeek,
				MaxPerWeek:      w.MaxPerWeek,
			})
			continue
		}
		out = append(out, r)
	}
	return out, full
}

func mergeCapacity(a, b []model.CapacityDetail) []model.CapacityDetail {
	seen := make(map[string]struct{}, len(a))
	for _, d := range a {
		seen[d.InterviewerID] = struct{}{}
	}
	for _, d := range b {
		if _, ok := seen[d.InterviewerID]; ok {
			continue
		}
		seen[d.InterviewerID] = struct{}{}
		a = append(a, d)
	}
	return a
}
