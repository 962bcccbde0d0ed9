package loadtest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/interviewsched/internal/adapters/http/api"
	service "github.com/okian/interviewsched/internal/app"
	"github.com/okian/interviewsched/internal/config"
	"github.com/okian/interviewsched/internal/loadtest"
	"github.com/okian/interviewsched/pkg/logger"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(
		service.WithConfig(config.New()),
		service.WithLogger(logger.Nop()),
		service.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { svc.Stop(context.Background()) })
	srv := httptest.NewServer(api.NewServer(svc, svc, svc).Router())
	t.Cleanup(srv.Close)
	return srv
}

func week(url string) loadtest.Config {
	return loadtest.Config{
		BaseURL:   url,
		Requests:  30,
		Workers:   1,
		StartDate: "2026-03-02",
		EndDate:   "2026-03-06",
		Timezone:  "America/Los_Angeles",
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a scheduler with five demo interviewers capped at five a week", t, func() {
		srv := startServer(t)
		ctx := context.Background()

		convey.Convey("When more candidates arrive than the pool can take", func() {
			cfg := week(srv.URL)
			cfg.OutputFile = filepath.Join(t.TempDir(), "out", "requests.json")
			report, err := loadtest.Run(ctx, cfg, nil)

			convey.Convey("Then every interviewer is filled to capacity and the rest are refused", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Stats.Submitted, convey.ShouldEqual, 30)
				convey.So(report.Stats.Committed, convey.ShouldEqual, 25)
				convey.So(report.Stats.Rejected, convey.ShouldEqual, 5)
				convey.So(report.Stats.Failures["all_at_capacity"], convey.ShouldEqual, 5)
				convey.So(report.PerInterviewer, convey.ShouldHaveLength, 5)
				convey.So(report.Spread, convey.ShouldEqual, 0)
			})

			convey.Convey("And the generated requests are saved", func() {
				_, statErr := os.Stat(cfg.OutputFile)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the candidates are submitted concurrently", func() {
			cfg := week(srv.URL)
			cfg.Workers = 6
			report, err := loadtest.Run(ctx, cfg, logger.Nop())

			convey.Convey("Then capacity still holds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Stats.Failed, convey.ShouldEqual, 0)
				convey.So(report.Stats.Committed+report.Stats.Rejected, convey.ShouldEqual, 30)
				convey.So(report.Stats.Committed, convey.ShouldBeLessThanOrEqualTo, 25)
				for _, n := range report.PerInterviewer {
					convey.So(n, convey.ShouldBeLessThanOrEqualTo, 5)
				}
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	convey.Convey("Given a service that is down", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		convey.Convey("Then the run stops at the health check", func() {
			_, err := loadtest.Run(context.Background(), loadtest.Config{BaseURL: url, Timeout: time.Second}, nil)
			convey.So(errors.Is(err, loadtest.ErrUnhealthy), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a service that reports an overbooked interviewer", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/interviews", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
		mux.HandleFunc("/workload", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"window_days":21,"interviewers":[
				{"interviewer_id":"a","interviews_this_week":6,"interviews_in_window":6,"max_per_week":5},
				{"interviewer_id":"b","interviews_this_week":1,"interviews_in_window":1,"max_per_week":5}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("Then verification fails but the report is kept", func() {
			report, err := loadtest.Run(context.Background(), loadtest.Config{BaseURL: srv.URL, Requests: 3}, nil)
			convey.So(errors.Is(err, loadtest.ErrOverCapacity), convey.ShouldBeTrue)
			convey.So(report.Stats.Committed, convey.ShouldEqual, 3)
			convey.So(report.Spread, convey.ShouldEqual, 5)
		})
	})
}
