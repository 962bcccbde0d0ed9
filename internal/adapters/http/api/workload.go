package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/interviewsched/internal/domain/model"
)

type workloadResponse struct {
	WindowDays   int              `json:"window_days"`
	Interviewers []model.Workload `json:"interviewers"`
}

// WorkloadHandler reports per-interviewer load.
type WorkloadHandler struct {
	ledger      Ledger
	defaultDays int
}

// NewWorkloadHandler creates a new workload handler.
func NewWorkloadHandler(l Ledger, defaultDays int) *WorkloadHandler {
	return &WorkloadHandler{ledger: l, defaultDays: defaultDays}
}

// HandleWorkload handles GET /workload?days=N.
func (h *WorkloadHandler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	const op = "api.workload"
	days := h.defaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("days must be a positive integer")))
			return
		}
		days = n
	}
	snap := h.ledger.WorkloadSnapshot(days)
	if snap == nil {
		snap = []model.Workload{}
	}
	writeJSON(w, http.StatusOK, workloadResponse{WindowDays: days, Interviewers: snap})
}

// InterviewersHandler lists the roster.
type InterviewersHandler struct {
	ledger Ledger
}

// NewInterviewersHandler creates a new roster handler.
func NewInterviewersHandler(l Ledger) *InterviewersHandler {
	return &InterviewersHandler{ledger: l}
}

// HandleList handles GET /interviewers.
func (h *InterviewersHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	roster := h.ledger.Roster()
	if roster == nil {
		roster = []model.Interviewer{}
	}
	writeJSON(w, http.StatusOK, roster)
}
