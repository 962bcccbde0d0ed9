package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/internal/domain/pipeline"
)

// previewRequest mirrors the OpenAPI schema for POST /preview.
type previewRequest struct {
	InterviewType     string `json:"interview_type"`
	DurationMinutes   int    `json:"duration_minutes"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	CandidateTimezone string `json:"candidate_timezone"`
	TopN              int    `json:"top_n"`
}

// PreviewHandler handles recommendation previews.
type PreviewHandler struct {
	sched Scheduler
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(sched Scheduler) *PreviewHandler {
	return &PreviewHandler{sched: sched}
}

// HandlePreview handles POST /preview. Nothing is committed.
func (h *PreviewHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview"
	var body previewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	from, to, err := parseRange(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := h.sched.Preview(r.Context(), model.PreviewRequest{
		InterviewType:     body.InterviewType,
		DurationMinutes:   body.DurationMinutes,
		From:              from,
		To:                to,
		CandidateTimezone: body.CandidateTimezone,
		TopN:              body.TopN,
	})
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	default:
		writeJSON(w, http.StatusOK, out)
	}
}
