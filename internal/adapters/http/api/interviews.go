package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/internal/domain/pipeline"
)

const defaultHistoryDays = 30

// scheduleRequest mirrors the OpenAPI schema for POST /interviews.
type scheduleRequest struct {
	CandidateName     string `json:"candidate_name"`
	CandidateEmail    string `json:"candidate_email"`
	InterviewType     string `json:"interview_type"`
	DurationMinutes   int    `json:"duration_minutes"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	CandidateTimezone string `json:"candidate_timezone"`
}

func (s scheduleRequest) toModel() (model.ScheduleRequest, error) {
	from, to, err := parseRange(s.StartDate, s.EndDate)
	if err != nil {
		return model.ScheduleRequest{}, err
	}
	return model.ScheduleRequest{
		CandidateName:     s.CandidateName,
		CandidateEmail:    s.CandidateEmail,
		InterviewType:     s.InterviewType,
		DurationMinutes:   s.DurationMinutes,
		From:              from,
		To:                to,
		CandidateTimezone: s.CandidateTimezone,
	}, nil
}

// parseRange reads optional YYYY-MM-DD dates. Missing dates stay zero.
func parseRange(start, end string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if start != "" {
		if from, err = time.Parse(time.DateOnly, start); err != nil {
			return from, to, fmt.Errorf("invalid start_date %q; must be YYYY-MM-DD", start)
		}
	}
	if end != "" {
		if to, err = time.Parse(time.DateOnly, end); err != nil {
			return from, to, fmt.Errorf("invalid end_date %q; must be YYYY-MM-DD", end)
		}
	}
	return from, to, nil
}

type interviewList struct {
	Interviews []model.InterviewRecord `json:"interviews"`
	Count      int                     `json:"count"`
}

// InterviewsHandler handles scheduling and history requests.
type InterviewsHandler struct {
	sched  Scheduler
	ledger Ledger
}

// NewInterviewsHandler creates a new interviews handler.
func NewInterviewsHandler(sched Scheduler, l Ledger) *InterviewsHandler {
	return &InterviewsHandler{sched: sched, ledger: l}
}

// HandleSchedule handles POST /interviews. A committed interview answers
// 201; a scheduling failure answers 422, or 409 when the slot was taken by
// a concurrent request, with the full result as the body.
func (h *InterviewsHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule"
	var body scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.sched.Schedule(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	case res.Committed():
		writeJSON(w, http.StatusCreated, res)
	case res.Failure != nil && res.Failure.Code == model.FailureSlotTaken:
		writeJSON(w, http.StatusConflict, res)
	default:
		writeJSON(w, http.StatusUnprocessableEntity, res)
	}
}

// HandleList handles GET /interviews?since_days=N&interviewer_id=ID&status=S.
func (h *InterviewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_interviews"
	q := r.URL.Query()
	days := defaultHistoryDays
	if v := q.Get("since_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("since_days must be a positive integer")))
			return
		}
		days = n
	}
	recs := h.ledger.InterviewsSince(days, ledger.Filter{
		InterviewerID: q.Get("interviewer_id"),
		Status:        model.Status(q.Get("status")),
	})
	writeJSON(w, http.StatusOK, listOf(recs))
}

// HandleUpcoming handles GET /interviews/upcoming.
func (h *InterviewsHandler) HandleUpcoming(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listOf(h.ledger.Upcoming()))
}

func listOf(recs []model.InterviewRecord) interviewList {
	if recs == nil {
		recs = []model.InterviewRecord{}
	}
	return interviewList{Interviews: recs, Count: len(recs)}
}
