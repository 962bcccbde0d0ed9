// Package api exposes the scheduler over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/metrics"
)

const defaultWorkloadDays = 21

// Scheduler runs scheduling requests.
type Scheduler interface {
	Schedule(ctx context.Context, req model.ScheduleRequest) (model.Result, error)
	Preview(ctx context.Context, req model.PreviewRequest) (model.Preview, error)
}

// Ledger is the read side of the interviewer ledger.
type Ledger interface {
	Roster() []model.Interviewer
	InterviewsSince(days int, f ledger.Filter) []model.InterviewRecord
	Upcoming() []model.InterviewRecord
	WorkloadSnapshot(days int) []model.Workload
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the scheduling API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	interviewsHandler  *InterviewsHandler
	previewHandler     *PreviewHandler
	workloadHandler    *WorkloadHandler
	interviewerHandler *InterviewersHandler
}

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	workloadDays int
}

// WithWorkloadWindow sets the default window of GET /workload.
func WithWorkloadWindow(days int) Option {
	return func(o *options) {
		if days > 0 {
			o.workloadDays = days
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(sched Scheduler, l Ledger, stats StatsProvider, opts ...Option) *Server {
	o := options{workloadDays: defaultWorkloadDays}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(stats),
		interviewsHandler:  NewInterviewsHandler(sched, l),
		previewHandler:     NewPreviewHandler(sched),
		workloadHandler:    NewWorkloadHandler(l, o.workloadDays),
		interviewerHandler: NewInterviewersHandler(l),
	}
}

// Router returns a chi router with every route and the common middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	s.Register(r)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/interviews", func(r chi.Router) {
		r.Post("/", MetricsMiddleware(s.interviewsHandler.HandleSchedule, "interviews"))
		r.Get("/", MetricsMiddleware(s.interviewsHandler.HandleList, "interviews"))
		r.Get("/upcoming", MetricsMiddleware(s.interviewsHandler.HandleUpcoming, "interviews_upcoming"))
	})
	r.Post("/preview", MetricsMiddleware(s.previewHandler.HandlePreview, "preview"))
	r.Get("/workload", MetricsMiddleware(s.workloadHandler.HandleWorkload, "workload"))
	r.Get("/interviewers", MetricsMiddleware(s.interviewerHandler.HandleList, "interviewers"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
