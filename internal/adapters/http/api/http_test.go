package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/interviewsched/internal/adapters/http/api"
	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/internal/domain/pipeline"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockScheduler struct {
	result     model.Result
	preview    model.Preview
	err        error
	lastSched  model.ScheduleRequest
	lastReview model.PreviewRequest
}

func (m *mockScheduler) Schedule(_ context.Context, req model.ScheduleRequest) (model.Result, error) {
	m.lastSched = req
	return m.result, m.err
}

func (m *mockScheduler) Preview(_ context.Context, req model.PreviewRequest) (model.Preview, error) {
	m.lastReview = req
	return m.preview, m.err
}

type mockLedger struct {
	roster     []model.Interviewer
	history    []model.InterviewRecord
	upcoming   []model.InterviewRecord
	workload   []model.Workload
	lastDays   int
	lastFilter ledger.Filter
}

func (m *mockLedger) Roster() []model.Interviewer { return m.roster }

func (m *mockLedger) InterviewsSince(days int, f ledger.Filter) []model.InterviewRecord {
	m.lastDays, m.lastFilter = days, f
	return m.history
}

func (m *mockLedger) Upcoming() []model.InterviewRecord { return m.upcoming }

func (m *mockLedger) WorkloadSnapshot(days int) []model.Workload {
	m.lastDays = days
	return m.workload
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	Convey("Given a new API server", t, func() {
		sched := &mockScheduler{}
		lg := &mockLedger{roster: []model.Interviewer{{ID: "sa1", Name: "Alex Chen"}}}
		stats := &mockStatsProvider{stats: map[string]any{"interviews": 3}}
		router := api.NewServer(sched, lg, stats, api.WithWorkloadWindow(14)).Router()

		Convey("Then health endpoint should be accessible", func() {
			w := serve(router, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then stats endpoint should return provider stats", func() {
			w := serve(router, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"interviews":3`)
		})

		Convey("Then metrics endpoint should serve Prometheus text", func() {
			w := serve(router, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "interviewsched_")
		})

		Convey("Then the roster is listed", func() {
			w := serve(router, http.MethodGet, "/interviewers", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var got []model.Interviewer
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].ID, ShouldEqual, "sa1")
		})

		Convey("Then unknown routes and wrong methods are rejected", func() {
			So(serve(router, http.MethodGet, "/nope", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(router, http.MethodDelete, "/preview", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestInterviewsHandler_Schedule(t *testing.T) {
	Convey("Given an interviews endpoint", t, func() {
		sched := &mockScheduler{}
		router := api.NewServer(sched, &mockLedger{}, nil).Router()
		body := `{"candidate_name":"Jane Doe","candidate_email":"jane@example.com","interview_type":"coding",
			"duration_minutes":45,"start_date":"2026-03-02","end_date":"2026-03-06","candidate_timezone":"America/New_York"}`

		Convey("When the pipeline commits", func() {
			sched.result = model.Result{RequestID: "req_1", Stage: model.StageCommitted,
				Interview: &model.InterviewRecord{ID: "int_1"}}
			w := serve(router, http.MethodPost, "/interviews", body)

			Convey("Then it should return 201 with the result", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"stage":"COMMITTED"`)
			})

			Convey("Then the request is translated field by field", func() {
				So(sched.lastSched.CandidateName, ShouldEqual, "Jane Doe")
				So(sched.lastSched.DurationMinutes, ShouldEqual, 45)
				So(sched.lastSched.From.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(sched.lastSched.To.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(sched.lastSched.CandidateTimezone, ShouldEqual, "America/New_York")
			})
		})

		Convey("When the pipeline reports a capacity failure", func() {
			sched.result = model.Result{Stage: model.StageFailed, Failure: &model.Failure{
				Code: model.FailureAllAtCapacity, Message: "All interviewers are at weekly capacity: Alex Chen (5/5 this week)",
			}}
			w := serve(router, http.MethodPost, "/interviews", body)

			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(w.Body.String(), ShouldContainSubstring, "all_at_capacity")
		})

		Convey("When a concurrent request took the slot", func() {
			sched.result = model.Result{Stage: model.StageFailed, Failure: &model.Failure{Code: model.FailureSlotTaken}}
			So(serve(router, http.MethodPost, "/interviews", body).Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When the pipeline rejects the input", func() {
			sched.err = fmt.Errorf("%w: candidate email is required", pipeline.ErrInvalidRequest)
			w := serve(router, http.MethodPost, "/interviews", body)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "candidate email is required")
		})

		Convey("When the pipeline fails internally", func() {
			sched.err = errors.New("boom")
			So(serve(router, http.MethodPost, "/interviews", body).Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the body is not JSON", func() {
			So(serve(router, http.MethodPost, "/interviews", "{").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a date is malformed", func() {
			w := serve(router, http.MethodPost, "/interviews", `{"start_date":"03/02/2026"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "start_date")
		})
	})
}

func TestInterviewsHandler_History(t *testing.T) {
	Convey("Given a ledger with history", t, func() {
		lg := &mockLedger{
			history:  []model.InterviewRecord{{ID: "int_1"}, {ID: "int_2"}},
			upcoming: []model.InterviewRecord{{ID: "int_2"}},
		}
		router := api.NewServer(&mockScheduler{}, lg, nil).Router()

		Convey("When listing with filters", func() {
			w := serve(router, http.MethodGet, "/interviews?since_days=7&interviewer_id=sa1&status=scheduled", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"count":2`)
			So(lg.lastDays, ShouldEqual, 7)
			So(lg.lastFilter, ShouldResemble, ledger.Filter{InterviewerID: "sa1", Status: model.StatusScheduled})
		})

		Convey("When listing without filters", func() {
			serve(router, http.MethodGet, "/interviews", "")
			So(lg.lastDays, ShouldEqual, 30)
		})

		Convey("When since_days is invalid", func() {
			So(serve(router, http.MethodGet, "/interviews?since_days=-1", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing upcoming interviews", func() {
			w := serve(router, http.MethodGet, "/interviews/upcoming", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"count":1`)
		})
	})
}

func TestPreviewAndWorkload(t *testing.T) {
	Convey("Given preview and workload endpoints", t, func() {
		sched := &mockScheduler{preview: model.Preview{SlotsFound: 12, Source: model.SourceSimulated}}
		lg := &mockLedger{workload: []model.Workload{{InterviewerID: "sa1", CountInWindow: 2}}}
		router := api.NewServer(sched, lg, nil, api.WithWorkloadWindow(14)).Router()

		Convey("When previewing", func() {
			w := serve(router, http.MethodPost, "/preview", `{"interview_type":"ml_ai","top_n":3}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"total_slots_found":12`)
			So(w.Body.String(), ShouldContainSubstring, `"availability_source":"simulated"`)
			So(sched.lastReview.TopN, ShouldEqual, 3)
			So(sched.lastReview.From.IsZero(), ShouldBeTrue)
		})

		Convey("When the preview is invalid", func() {
			sched.err = fmt.Errorf("%w: interview type is required", pipeline.ErrInvalidRequest)
			So(serve(router, http.MethodPost, "/preview", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When reading workload with the default window", func() {
			w := serve(router, http.MethodGet, "/workload", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(lg.lastDays, ShouldEqual, 14)
			So(w.Body.String(), ShouldContainSubstring, `"window_days":14`)
			So(w.Body.String(), ShouldContainSubstring, `"interviews_in_window":2`)
		})

		Convey("When reading workload for a custom window", func() {
			serve(router, http.MethodGet, "/workload?days=7", "")
			So(lg.lastDays, ShouldEqual, 7)
			So(serve(router, http.MethodGet, "/workload?days=x", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		cause := errors.New("eof")

		Convey("WrapKind matches both the kind and the cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: eof")
		})

		Convey("NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrInternal)
			So(errors.Is(err, api.ErrInternal), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: internal error")
		})

		Convey("Wrap keeps nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: eof")
		})
	})
}
