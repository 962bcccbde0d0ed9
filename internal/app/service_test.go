package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/interviewsched/internal/app"
	"github.com/okian/interviewsched/internal/config"
	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newService(cfg *config.Config, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithConfig(cfg),
		service.WithLogger(logger.Nop()),
		service.WithClock(clock),
	}
	return service.New(append(base, opts...)...)
}

func monday(interviewType string) model.ScheduleRequest {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return model.ScheduleRequest{
		CandidateName:     "Jane Doe",
		CandidateEmail:    "jane@example.com",
		InterviewType:     interviewType,
		DurationMinutes:   60,
		From:              day,
		To:                day,
		CandidateTimezone: "America/Los_Angeles",
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should carry the default config", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Config().LedgerBackend, ShouldEqual, config.BackendJSON)
		})

		Convey("And it should refuse work before Start", func() {
			_, err := svc.Schedule(context.Background(), monday("coding"))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Preview(context.Background(), model.PreviewRequest{InterviewType: "coding"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Roster(), ShouldBeEmpty)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given an in-memory service with the demo roster", t, func() {
		svc := newService(config.New())
		ctx := context.Background()
		defer svc.Stop(ctx)

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And it should report stats", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["interviewers"], ShouldEqual, 5)
				So(stats["activeInterviewers"], ShouldEqual, 5)
				So(stats["interviews"], ShouldEqual, 0)
			})

			Convey("And it should schedule through the pipeline", func() {
				res, err := svc.Schedule(ctx, monday("ml_ai"))
				So(err, ShouldBeNil)
				So(res.Committed(), ShouldBeTrue)
				So(res.Source, ShouldEqual, model.SourceSimulated)
				So(svc.InterviewsSince(30, ledger.Filter{}), ShouldHaveLength, 1)
				So(svc.Upcoming(), ShouldHaveLength, 1)
				So(svc.WorkloadSnapshot(21), ShouldHaveLength, 5)
			})

			Convey("And stopping it marks it stopped", func() {
				svc.Stop(ctx)
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Schedule(ctx, monday("coding"))
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with a bad refresh schedule", t, func() {
		cfg := config.New()
		cfg.WorkloadRefreshSchedule = "whenever"
		svc := newService(cfg)

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrStart), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "whenever")
		})
	})

	Convey("Given a service with an unknown default timezone", t, func() {
		cfg := config.New()
		cfg.DefaultTimezone = "Mars/Olympus"
		svc := newService(cfg)

		Convey("Then Start fails", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrStart), ShouldBeTrue)
		})
	})
}

func TestService_CalendarUnavailable(t *testing.T) {
	Convey("Given Google Calendar with a credentials file that does not exist", t, func() {
		cfg := config.New()
		cfg.CalendarProvider = config.CalendarGoogle
		cfg.CalendarCredentialsFile = filepath.Join(os.TempDir(), "interviewsched-missing", "credentials.json")
		svc := newService(cfg)
		ctx := context.Background()

		Convey("When the service starts", func() {
			err := svc.Start(ctx)
			defer svc.Stop(ctx)

			Convey("Then it falls back to simulated availability instead of failing", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["calendarError"], ShouldContainSubstring, "calendar unavailable")

				res, err := svc.Schedule(ctx, monday("coding"))
				So(err, ShouldBeNil)
				So(res.Committed(), ShouldBeTrue)
				So(res.Source, ShouldEqual, model.SourceSimulated)
				So(res.CalendarEvent, ShouldBeNil)
			})
		})
	})
}

func TestService_Roster(t *testing.T) {
	Convey("Given a configured roster", t, func() {
		off := false
		cfg := config.New()
		cfg.DefaultMaxPerWeek = 3
		cfg.Roster = []config.Interviewer{
			{ID: "a", Name: "Ari", Email: "ari@example.com", Specialty: "Platform"},
			{ID: "b", Name: "Bo", Email: "bo@example.com", Timezone: "Europe/Berlin", MaxPerWeek: 8, Active: &off},
		}
		svc := newService(cfg)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Then it replaces the demo roster with defaults filled in", func() {
			roster := svc.Roster()
			So(roster, ShouldHaveLength, 2)
			So(roster[0].MaxPerWeek, ShouldEqual, 3)
			So(roster[0].Timezone, ShouldEqual, "America/Los_Angeles")
			So(roster[0].Active, ShouldBeTrue)
			So(roster[1].MaxPerWeek, ShouldEqual, 8)
			So(roster[1].Timezone, ShouldEqual, "Europe/Berlin")
			So(roster[1].Active, ShouldBeFalse)
			So(svc.GetStats()["activeInterviewers"], ShouldEqual, 1)
		})
	})
}

func TestService_Persistence(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		Convey("Given a "+backend+" ledger on disk", t, func() {
			dir, err := os.MkdirTemp("", "interviewsched-*")
			So(err, ShouldBeNil)
			defer os.RemoveAll(dir)

			cfg := config.New()
			cfg.LedgerBackend = backend
			cfg.LedgerPath = filepath.Join(dir, "ledger."+backend)
			ctx := context.Background()

			Convey("When an interview is scheduled and the service restarts", func() {
				first := newService(cfg)
				So(first.Start(ctx), ShouldBeNil)
				res, err := first.Schedule(ctx, monday("coding"))
				So(err, ShouldBeNil)
				So(res.Committed(), ShouldBeTrue)
				first.Stop(ctx)

				second := newService(cfg)
				So(second.Start(ctx), ShouldBeNil)
				defer second.Stop(ctx)

				Convey("Then the interview and roster survive", func() {
					history := second.InterviewsSince(30, ledger.Filter{})
					So(history, ShouldHaveLength, 1)
					So(history[0].ID, ShouldEqual, res.Interview.ID)
					So(history[0].ScheduledAt.Equal(res.Interview.ScheduledAt), ShouldBeTrue)
					So(second.Roster(), ShouldHaveLength, 5)
				})
			})
		})
	}
}

func TestService_RefreshWorkload(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(config.New())
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Then refreshing the gauges does not panic", func() {
			So(func() { svc.RefreshWorkload(ctx) }, ShouldNotPanic)
		})
	})

	Convey("Given a service that never started", t, func() {
		svc := newService(config.New())

		Convey("Then refreshing is a no-op", func() {
			So(func() { svc.RefreshWorkload(context.Background()) }, ShouldNotPanic)
		})
	})
}
