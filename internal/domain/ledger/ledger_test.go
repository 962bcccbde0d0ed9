package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type memPersister struct {
	mu      sync.Mutex
	doc     ledger.Document
	loadErr error
	saveErr error
	saves   int
	ctxErrs []error
}

func (m *memPersister) Load(context.Context) (ledger.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc, m.loadErr
}

func (m *memPersister) Save(ctx context.Context, doc ledger.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc
	return nil
}

func roster(ids ...string) []model.Interviewer {
	out := make([]model.Interviewer, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Interviewer{
			ID: id, Name: "Name " + id, Timezone: "UTC", Specialty: "Platform", MaxPerWeek: 5, Active: true,
		})
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLedgerRosterPrecedence(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a persisted roster", t, func() {
		p := &memPersister{doc: ledger.Document{Interviewers: roster("p1", "p2")}}

		convey.Convey("When a roster is configured", func() {
			l := ledger.New(ctx, ledger.WithPersister(p), ledger.WithRoster(roster("c1")), ledger.WithDemoRoster(true))

			convey.Convey("Then the configured roster wins and is written back", func() {
				convey.So(l.Roster(), convey.ShouldHaveLength, 1)
				convey.So(l.Roster()[0].ID, convey.ShouldEqual, "c1")
				convey.So(p.saves, convey.ShouldEqual, 1)
				convey.So(p.doc.Interviewers[0].ID, convey.ShouldEqual, "c1")
			})
		})

		convey.Convey("When nothing is configured", func() {
			l := ledger.New(ctx, ledger.WithPersister(p), ledger.WithDemoRoster(true))

			convey.Convey("Then the persisted roster is used without a rewrite", func() {
				convey.So(l.Roster(), convey.ShouldHaveLength, 2)
				convey.So(p.saves, convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given an empty store", t, func() {
		convey.Convey("When the demo roster is enabled", func() {
			l := ledger.New(ctx, ledger.WithDemoRoster(true))

			convey.Convey("Then five demo interviewers are seeded", func() {
				convey.So(l.Active(), convey.ShouldHaveLength, 5)
				iv, ok := l.Interviewer("sa2")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(iv.Specialty, convey.ShouldEqual, "ML/AI")
			})
		})

		convey.Convey("When the demo roster is disabled", func() {
			l := ledger.New(ctx)

			convey.So(l.Roster(), convey.ShouldBeEmpty)
		})
	})

	convey.Convey("Given a store that fails to load", t, func() {
		p := &memPersister{
			doc:     ledger.Document{Interviews: []model.InterviewRecord{{ID: "x"}}},
			loadErr: errors.New("corrupt file"),
		}

		convey.Convey("Then the ledger starts empty instead of failing", func() {
			l := ledger.New(ctx, ledger.WithPersister(p))
			convey.So(l.Len(), convey.ShouldEqual, 0)
			convey.So(l.Roster(), convey.ShouldBeEmpty)
		})
	})

	convey.Convey("Given a roster with duplicate and inactive entries", t, func() {
		r := roster("a", "a", "b")
		r[2].Active = false
		l := ledger.New(ctx, ledger.WithRoster(r))

		convey.Convey("Then duplicates are dropped and Active filters", func() {
			convey.So(l.Roster(), convey.ShouldHaveLength, 2)
			convey.So(l.Active(), convey.ShouldHaveLength, 1)
		})
	})
}

func TestLedgerRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	convey.Convey("Given a ledger with two interviewers", t, func() {
		c := &clock{t: now}
		p := &memPersister{}
		r := roster("sa1", "sa2")
		r[1].Active = false
		n := 0
		l := ledger.New(ctx,
			ledger.WithRoster(r),
			ledger.WithPersister(p),
			ledger.WithClock(c.now),
			ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("int_%d", n) }),
		)

		convey.Convey("When recording an interview", func() {
			rec, err := l.Record(ctx, model.InterviewRecord{
				CandidateName:   "Pat",
				InterviewType:   "coding",
				ScheduledAt:     now.Add(48 * time.Hour),
				DurationMinutes: 60,
				InterviewerID:   "sa1",
			})

			convey.Convey("Then it gets an id, a creation time and scheduled status", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.ID, convey.ShouldEqual, "int_1")
				convey.So(rec.CreatedAt, convey.ShouldEqual, now)
				convey.So(rec.Status, convey.ShouldEqual, model.StatusScheduled)
				convey.So(rec.InterviewerName, convey.ShouldEqual, "Name sa1")
				convey.So(l.Len(), convey.ShouldEqual, 1)
				convey.So(p.doc.Interviews, convey.ShouldHaveLength, 1)
			})

			convey.Convey("Then a second append never overwrites the first", func() {
				rec2, err := l.Record(ctx, model.InterviewRecord{
					ScheduledAt: now.Add(72 * time.Hour), DurationMinutes: 30, InterviewerID: "sa1",
				})
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec2.ID, convey.ShouldNotEqual, rec.ID)
				convey.So(l.Len(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the caller's context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := l.Record(cancelled, model.InterviewRecord{
				ScheduledAt: now.Add(48 * time.Hour), DurationMinutes: 60, InterviewerID: "sa1",
			})

			convey.Convey("Then the document is still written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.doc.Interviews, convey.ShouldHaveLength, 1)
				convey.So(p.ctxErrs, convey.ShouldNotBeEmpty)
				for _, e := range p.ctxErrs {
					convey.So(e, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When the interviewer is unknown or inactive", func() {
			_, errUnknown := l.Record(ctx, model.InterviewRecord{ScheduledAt: now, DurationMinutes: 30, InterviewerID: "ghost"})
			_, errInactive := l.Record(ctx, model.InterviewRecord{ScheduledAt: now, DurationMinutes: 30, InterviewerID: "sa2"})
			_, errInvalid := l.Record(ctx, model.InterviewRecord{InterviewerID: "sa1"})

			convey.Convey("Then the append is rejected", func() {
				convey.So(errors.Is(errUnknown, ledger.ErrUnknownInterviewer), convey.ShouldBeTrue)
				convey.So(errors.Is(errInactive, ledger.ErrInactiveInterviewer), convey.ShouldBeTrue)
				convey.So(errors.Is(errInvalid, ledger.ErrInvalidRecord), convey.ShouldBeTrue)
				convey.So(l.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the store fails to save", func() {
			p.saveErr = errors.New("disk full")
			_, err := l.Record(ctx, model.InterviewRecord{ScheduledAt: now, DurationMinutes: 30, InterviewerID: "sa1"})

			convey.Convey("Then the append still succeeds in memory", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(l.Len(), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestLedgerQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	convey.Convey("Given a history spread over a month", t, func() {
		c := &clock{t: now}
		l := ledger.New(ctx, ledger.WithRoster(roster("sa1", "sa2", "sa3")), ledger.WithClock(c.now))

		add := func(id string, createdDaysAgo int, startIn time.Duration) {
			c.t = now.Add(-time.Duration(createdDaysAgo) * 24 * time.Hour)
			_, err := l.Record(ctx, model.InterviewRecord{
				ScheduledAt: now.Add(startIn), DurationMinutes: 60, InterviewerID: id,
			})
			convey.So(err, convey.ShouldBeNil)
		}
		add("sa1", 30, -29*24*time.Hour) // outside every window
		add("sa1", 10, -9*24*time.Hour)
		add("sa1", 2, 5*time.Hour)
		add("sa2", 3, 2*time.Hour)
		c.t = now

		convey.Convey("Then InterviewsSince uses the creation time window and filters", func() {
			convey.So(l.InterviewsSince(21, ledger.Filter{}), convey.ShouldHaveLength, 3)
			convey.So(l.InterviewsSince(7, ledger.Filter{InterviewerID: "sa1"}), convey.ShouldHaveLength, 1)
			convey.So(l.InterviewsSince(60, ledger.Filter{Status: "cancelled"}), convey.ShouldBeEmpty)
		})

		convey.Convey("Then Upcoming is future scheduled records ordered by start", func() {
			up := l.Upcoming()
			convey.So(up, convey.ShouldHaveLength, 2)
			convey.So(up[0].InterviewerID, convey.ShouldEqual, "sa2")
			convey.So(up[1].InterviewerID, convey.ShouldEqual, "sa1")
		})

		convey.Convey("Then InterviewCounts includes idle interviewers", func() {
			convey.So(l.InterviewCounts(21), convey.ShouldResemble, map[string]int{"sa1": 2, "sa2": 1, "sa3": 0})
		})

		convey.Convey("Then HasConflict uses half-open overlap", func() {
			start := now.Add(5 * time.Hour)
			convey.So(l.HasConflict("sa1", model.Interval{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)}), convey.ShouldBeTrue)
			convey.So(l.HasConflict("sa1", model.Interval{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)}), convey.ShouldBeFalse)
			convey.So(l.HasConflict("sa3", model.Interval{Start: start, End: start.Add(time.Hour)}), convey.ShouldBeFalse)
		})

		convey.Convey("Then the workload snapshot derives fair share from live counts", func() {
			snap := l.WorkloadSnapshot(21)
			convey.So(snap, convey.ShouldHaveLength, 3)

			total := 0
			for _, w := range snap {
				total += w.CountInWindow
			}
			for _, w := range snap {
				convey.So(w.FairShare, convey.ShouldEqual, float64(total)/3)
				convey.So(w.Deviation, convey.ShouldEqual, float64(w.CountInWindow)-float64(total)/3)
			}
			convey.So(snap[0].CountInWindow, convey.ShouldEqual, 2)
			convey.So(snap[0].CountThisWeek, convey.ShouldEqual, 1)
			convey.So(snap[0].CapacityUsed, convey.ShouldEqual, 0.2)
			convey.So(snap[2].BaseScore, convey.ShouldEqual, 1+2.0)
		})

		convey.Convey("Then a new record is reflected on the next snapshot", func() {
			before := l.WorkloadSnapshot(21)[2].CountInWindow
			_, err := l.Record(ctx, model.InterviewRecord{ScheduledAt: now.Add(time.Hour), DurationMinutes: 30, InterviewerID: "sa3"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(l.WorkloadSnapshot(21)[2].CountInWindow, convey.ShouldEqual, before+1)
		})
	})

	convey.Convey("Given an interviewer at weekly capacity", t, func() {
		c := &clock{t: now}
		r := roster("sa1")
		r[0].MaxPerWeek = 2
		l := ledger.New(ctx, ledger.WithRoster(r), ledger.WithClock(c.now))
		for i := 0; i < 2; i++ {
			_, err := l.Record(ctx, model.InterviewRecord{ScheduledAt: now.Add(time.Duration(i+1) * time.Hour), DurationMinutes: 30, InterviewerID: "sa1"})
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("Then the snapshot marks them at capacity with the floor score", func() {
			w := l.WorkloadSnapshot(21)[0]
			convey.So(w.AtCapacity, convey.ShouldBeTrue)
			convey.So(w.CapacityUsed, convey.ShouldEqual, 1.0)
			convey.So(w.BaseScore, convey.ShouldEqual, -999.0)
			convey.So(l.AtCapacity("sa1"), convey.ShouldBeTrue)
			convey.So(l.AtCapacity("ghost"), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an interviewer with no weekly cap", t, func() {
		r := roster("sa1")
		r[0].MaxPerWeek = 0
		l := ledger.New(ctx, ledger.WithRoster(r))

		convey.Convey("Then capacity is treated as fully used", func() {
			w := l.WorkloadSnapshot(21)[0]
			convey.So(w.CapacityUsed, convey.ShouldEqual, 1.0)
			convey.So(w.AtCapacity, convey.ShouldBeTrue)
		})
	})
}

func TestLedgerConcurrentRecord(t *testing.T) {
	convey.Convey("Given concurrent appends", t, func() {
		ctx := context.Background()
		p := &memPersister{}
		l := ledger.New(ctx, ledger.WithRoster(roster("sa1")), ledger.WithPersister(p))
		start := time.Now().Add(24 * time.Hour)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = l.Record(ctx, model.InterviewRecord{
					ScheduledAt: start.Add(time.Duration(i) * time.Hour), DurationMinutes: 30, InterviewerID: "sa1",
				})
			}(i)
		}
		wg.Wait()

		convey.Convey("Then every record lands and the last save holds all of them", func() {
			convey.So(l.Len(), convey.ShouldEqual, 20)
			convey.So(p.doc.Interviews, convey.ShouldHaveLength, 20)
		})
	})
}
