// Package ledger is the authoritative store for the interviewer roster and
// the append-only interview history.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
	"github.com/okian/interviewsched/pkg/metrics"
)

const (
	day                 = 24 * time.Hour
	defaultCapacityDays = 7
	idPrefix            = "int_"

	// atCapacityScore ranks an at-capacity interviewer below everyone else.
	atCapacityScore = -999
	headroomWeight  = 2
)

// Document is the persisted form of the ledger.
type Document struct {
	Interviewers []model.Interviewer     `json:"interviewers"`
	Interviews   []model.InterviewRecord `json:"interviews"`
}

// Persister loads and rewrites the ledger document.
type Persister interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}

// Filter narrows InterviewsSince. Empty fields match everything.
type Filter struct {
	InterviewerID string
	Status        model.Status
}

// Ledger holds the roster and interview history. It is safe for concurrent use.
type Ledger struct {
	mu         sync.RWMutex
	roster     []model.Interviewer
	index      map[string]int
	interviews []model.InterviewRecord

	// saveMu orders document rewrites so an older snapshot never lands last.
	saveMu    sync.Mutex
	persister Persister

	configured   []model.Interviewer
	demo         bool
	capacityDays int
	now          func() time.Time
	newID        func() string
	log          logger.Logger
}

// New builds a ledger and loads its document. A load failure is logged and
// the ledger starts empty.
//
// Roster precedence: configured roster, then the persisted one, then the demo
// roster when enabled.
func New(ctx context.Context, opts ...Option) *Ledger {
	l := &Ledger{
		capacityDays: defaultCapacityDays,
		now:          time.Now,
		newID:        func() string { return idPrefix + uuid.NewString() },
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	var doc Document
	if l.persister != nil {
		loaded, err := l.persister.Load(ctx)
		if err != nil {
			metrics.RecordLedgerPersistError("load")
			l.log.Warn(ctx, "ledger load failed, starting empty", logger.Error(err))
		} else {
			doc = loaded
		}
	}

	roster, source := doc.Interviewers, "persisted"
	switch {
	case len(l.configured) > 0:
		roster, source = l.configured, "config"
	case len(roster) == 0 && l.demo:
		roster, source = DemoRoster(), "demo"
	}
	l.setRoster(roster)
	l.interviews = append([]model.InterviewRecord(nil), doc.Interviews...)

	l.log.Info(ctx, "ledger ready",
		logger.String("roster_source", source),
		logger.Int("interviewers", len(l.roster)),
		logger.Int("interviews", len(l.interviews)),
	)
	if source != "persisted" {
		l.persist(ctx)
	}
	l.publishGauges()
	return l
}

func (l *Ledger) setRoster(roster []model.Interviewer) {
	l.roster = make([]model.Interviewer, 0, len(roster))
	l.index = make(map[string]int, len(roster))
	for _, iv := range roster {
		if _, dup := l.index[iv.ID]; dup || iv.ID == "" {
			continue
		}
		l.index[iv.ID] = len(l.roster)
		l.roster = append(l.roster, iv)
	}
}

// Roster returns every interviewer in roster order.
func (l *Ledger) Roster() []model.Interviewer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Interviewer(nil), l.roster...)
}

// Active returns the active interviewers in roster order.
func (l *Ledger) Active() []model.Interviewer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.activeLocked()
}

func (l *Ledger) activeLocked() []model.Interviewer {
	out := make([]model.Interviewer, 0, len(l.roster))
	for _, iv := range l.roster {
		if iv.Active {
			out = append(out, iv)
		}
	}
	return out
}

// Interviewer looks up a roster entry by id.
func (l *Ledger) Interviewer(id string) (model.Interviewer, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return model.Interviewer{}, false
	}
	return l.roster[i], true
}

// Len returns the number of interview records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.interviews)
}

// Record appends an interview. It assigns a fresh id, stamps the creation
// time and never overwrites an existing record. Persistence failures are
// logged and do not fail the append.
func (l *Ledger) Record(ctx context.Context, rec model.InterviewRecord) (model.InterviewRecord, error) {
	if rec.ScheduledAt.IsZero() || rec.DurationMinutes <= 0 {
		return model.InterviewRecord{}, fmt.Errorf("%w: scheduled time and positive duration required", ErrInvalidRecord)
	}

	l.mu.Lock()
	i, ok := l.index[rec.InterviewerID]
	if !ok {
		l.mu.Unlock()
		return model.InterviewRecord{}, fmt.Errorf("%w: %s", ErrUnknownInterviewer, rec.InterviewerID)
	}
	iv := l.roster[i]
	if !iv.Active {
		l.mu.Unlock()
		return model.InterviewRecord{}, fmt.Errorf("%w: %s", ErrInactiveInterviewer, rec.InterviewerID)
	}
	rec.ID = l.newID()
	rec.InterviewerName = iv.Name
	rec.CreatedAt = l.now().UTC()
	if rec.Status == "" {
		rec.Status = model.StatusScheduled
	}
	l.interviews = append(l.interviews, rec)
	l.mu.Unlock()

	// The append is committed; a caller that went away must not skip the write.
	l.persist(context.WithoutCancel(ctx))
	metrics.UpdateLedgerInterviews(l.Len())
	l.log.Info(ctx, "interview recorded",
		logger.String("interview_id", rec.ID),
		logger.String("interviewer_id", rec.InterviewerID),
		logger.Time("scheduled_at", rec.ScheduledAt),
	)
	return rec, nil
}

// InterviewsSince returns records created within the last days, oldest first.
func (l *Ledger) InterviewsSince(days int, f Filter) []model.InterviewRecord {
	cutoff := l.now().Add(-time.Duration(days) * day)

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.InterviewRecord, 0)
	for _, rec := range l.interviews {
		if rec.CreatedAt.Before(cutoff) {
			continue
		}
		if f.InterviewerID != "" && rec.InterviewerID != f.InterviewerID {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Upcoming returns scheduled records starting in the future, ordered by start.
func (l *Ledger) Upcoming() []model.InterviewRecord {
	now := l.now()

	l.mu.RLock()
	out := make([]model.InterviewRecord, 0)
	for _, rec := range l.interviews {
		if rec.Status == model.StatusScheduled && rec.ScheduledAt.After(now) {
			out = append(out, rec)
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// HasConflict reports whether a scheduled record of the interviewer overlaps iv.
func (l *Ledger) HasConflict(interviewerID string, iv model.Interval) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, rec := range l.interviews {
		if rec.InterviewerID == interviewerID && rec.Status == model.StatusScheduled && rec.Interval().Overlaps(iv) {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the interviewer has reached their weekly cap.
// Unknown interviewers are reported as full.
func (l *Ledger) AtCapacity(interviewerID string) bool {
	cutoff := l.now().Add(-time.Duration(l.capacityDays) * day)

	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[interviewerID]
	if !ok {
		return true
	}
	n := 0
	for _, rec := range l.interviews {
		if rec.InterviewerID == interviewerID && !rec.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n >= l.roster[i].MaxPerWeek
}

// InterviewCounts returns the number of records per interviewer created in
// the last days. Every active interviewer is present, with zero if idle.
func (l *Ledger) InterviewCounts(days int) map[string]int {
	cutoff := l.now().Add(-time.Duration(days) * day)

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.countsLocked(cutoff)
}

func (l *Ledger) countsLocked(cutoff time.Time) map[string]int {
	counts := make(map[string]int, len(l.roster))
	for _, iv := range l.roster {
		if iv.Active {
			counts[iv.ID] = 0
		}
	}
	for _, rec := range l.interviews {
		if !rec.CreatedAt.Before(cutoff) && rec.InterviewerID != "" {
			counts[rec.InterviewerID]++
		}
	}
	return counts
}

// WorkloadSnapshot derives the workload of every active interviewer over a
// rolling window of days, in roster order. It is recomputed on every call.
func (l *Ledger) WorkloadSnapshot(days int) []model.Workload {
	now := l.now()

	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := l.countsLocked(now.Add(-time.Duration(days) * day))
	weekly := l.countsLocked(now.Add(-time.Duration(l.capacityDays) * day))
	active := l.activeLocked()

	total := 0
	for _, c := range counts {
		total += c
	}
	var fairShare float64
	if len(active) > 0 {
		fairShare = float64(total) / float64(len(active))
	}

	out := make([]model.Workload, 0, len(active))
	for _, iv := range active {
		w := model.Workload{
			InterviewerID:   iv.ID,
			InterviewerName: iv.Name,
			Specialty:       iv.Specialty,
			CountInWindow:   counts[iv.ID],
			CountThisWeek:   weekly[iv.ID],
			MaxPerWeek:      iv.MaxPerWeek,
			FairShare:       fairShare,
		}
		w.Deviation = float64(w.CountInWindow) - fairShare
		w.CapacityUsed = 1
		if w.MaxPerWeek > 0 {
			w.CapacityUsed = float64(w.CountThisWeek) / float64(w.MaxPerWeek)
		}
		w.AtCapacity = w.CountThisWeek >= w.MaxPerWeek
		if w.AtCapacity {
			w.BaseScore = atCapacityScore
		} else {
			w.BaseScore = -w.Deviation + (1-w.CapacityUsed)*headroomWeight
		}
		out = append(out, w)
	}
	return out
}

// persist rewrites the document. Failures are logged and metered only.
func (l *Ledger) persist(ctx context.Context) {
	if l.persister == nil {
		return
	}
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.RLock()
	doc := Document{
		Interviewers: append([]model.Interviewer(nil), l.roster...),
		Interviews:   append([]model.InterviewRecord(nil), l.interviews...),
	}
	l.mu.RUnlock()

	if err := l.persister.Save(ctx, doc); err != nil {
		metrics.RecordLedgerPersistError("save")
		l.log.Warn(ctx, "ledger save failed, keeping in-memory state", logger.Error(err))
	}
}

func (l *Ledger) publishGauges() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	metrics.UpdateLedgerInterviews(len(l.interviews))
	metrics.UpdateRosterActive(len(l.activeLocked()))
}
