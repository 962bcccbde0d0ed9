// Package service wires configuration into the scheduling components and
// implements the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"google.golang.org/api/option"

	"github.com/okian/interviewsched/internal/adapters/calendar"
	"github.com/okian/interviewsched/internal/adapters/mq/queue"
	"github.com/okian/interviewsched/internal/adapters/mq/worker"
	"github.com/okian/interviewsched/internal/adapters/notify"
	"github.com/okian/interviewsched/internal/adapters/repository"
	"github.com/okian/interviewsched/internal/config"
	"github.com/okian/interviewsched/internal/domain/availability"
	"github.com/okian/interviewsched/internal/domain/fairness"
	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/internal/domain/pipeline"
	"github.com/okian/interviewsched/pkg/logger"
	"github.com/okian/interviewsched/pkg/metrics"
)

// Sentinel errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrStart      = errors.New("service start failed")
)

// Service owns the ledger, resolver, ranking engine and pipeline built from
// one Config.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	ledger   *ledger.Ledger
	resolver *availability.Resolver
	engine   *fairness.Engine
	pipeline *pipeline.Pipeline
	sqlite   *repository.SQLiteStore
	notify   *worker.Pool
	cron     *cron.Cron

	// Adapter overrides
	calendarOpts []option.ClientOption
	slackAPIURL  string
	now          func() time.Time

	// State
	started     bool
	startedAt   time.Time
	calendarErr error

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. New uses config.New() when omitted.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock replaces time.Now in every component.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCalendarClientOptions adds Google API client options, such as an
// endpoint or an HTTP client.
func WithCalendarClientOptions(opts ...option.ClientOption) Option {
	return func(s *Service) {
		s.calendarOpts = append(s.calendarOpts, opts...)
	}
}

// WithSlackAPIURL points the Slack notifier at another API root.
func WithSlackAPIURL(url string) Option {
	return func(s *Service) {
		s.slackAPIURL = url
	}
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds every component and starts the workload refresh job.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting interview scheduler...")

	if err := s.build(ctx); err != nil {
		s.teardown(ctx)
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	if spec := s.cfg.WorkloadRefreshSchedule; spec != "" {
		c := cron.New()
		l, days, log := s.ledger, s.cfg.FairnessWindowDays, s.logger
		if _, err := c.AddFunc(spec, func() { refreshWorkload(context.Background(), l, days, log) }); err != nil {
			s.teardown(ctx)
			return fmt.Errorf("%w: workload_refresh_schedule %q: %w", ErrStart, spec, err)
		}
		c.Start()
		s.cron = c
	}
	refreshWorkload(ctx, s.ledger, s.cfg.FairnessWindowDays, s.logger)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "interview scheduler started",
		logger.String("ledger_backend", s.cfg.LedgerBackend),
		logger.String("calendar_provider", s.cfg.CalendarProvider),
		logger.Int("interviewers", len(s.ledger.Active())),
		logger.Int("interviews", s.ledger.Len()),
	)
	return nil
}

func (s *Service) build(ctx context.Context) error {
	cfg := s.cfg
	log := s.logger

	ledgerOpts := []ledger.Option{
		ledger.WithRoster(rosterFromConfig(cfg)),
		ledger.WithDemoRoster(cfg.DemoRoster),
		ledger.WithCapacityWindow(cfg.CapacityWindowDays),
		ledger.WithClock(s.now),
		ledger.WithLogger(log.Named("ledger")),
	}
	persister, err := s.persister(ctx)
	if err != nil {
		return err
	}
	if persister != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithPersister(persister))
	}
	s.ledger = ledger.New(ctx, ledgerOpts...)

	resolverOpts := []availability.Option{
		availability.WithWorkingHours(cfg.WorkdayStartHour, cfg.WorkdayEndHour),
		availability.WithCalendarTimeout(cfg.CalendarTimeout()),
		availability.WithLoadWindow(cfg.FairnessWindowDays),
		availability.WithClock(s.now),
		availability.WithLogger(log.Named("availability")),
	}
	var events pipeline.EventCreator
	s.calendarErr = nil
	if cfg.CalendarProvider == config.CalendarGoogle {
		g, err := calendar.NewGoogle(ctx,
			calendar.WithCredentialsFile(cfg.CalendarCredentialsFile),
			calendar.WithOrganizer(cfg.CalendarOrganizer),
			calendar.WithMeetLinks(cfg.CalendarMeetLinks),
			calendar.WithClientOptions(s.calendarOpts...),
			calendar.WithLogger(log.Named("calendar")),
		)
		if err != nil {
			// Unusable credentials degrade every request to simulated availability.
			s.calendarErr = fmt.Errorf("%w: %w", availability.ErrCalendarUnavailable, err)
			metrics.RecordCalendarFallback()
			log.Warn(ctx, "calendar unavailable, using simulated availability", logger.Error(s.calendarErr))
		} else {
			resolverOpts = append(resolverOpts, availability.WithCalendar(g))
			if cfg.CalendarCreateEvents {
				events = g
			}
		}
	}
	s.resolver = availability.New(s.ledger, resolverOpts...)

	s.engine = fairness.New(s.ledger,
		fairness.WithWindow(cfg.FairnessWindowDays),
		fairness.WithSpecialtyBonus(cfg.SpecialtyBonus),
		fairness.WithExcludeAtCapacity(cfg.ExcludeAtCapacity),
		fairness.WithSpecialtyMap(cfg.SpecialtyMap),
		fairness.WithLogger(log.Named("fairness")),
	)

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("default timezone: %w", err)
	}
	pipelineOpts := []pipeline.Option{
		pipeline.WithDefaultTimezone(loc),
		pipeline.WithDefaultRange(cfg.DefaultRangeDays),
		pipeline.WithMaxDuration(s.resolver.WorkdayLength()),
		pipeline.WithPreviewTopN(cfg.PreviewTopN),
		pipeline.WithCommitGuard(cfg.CommitGuard),
		pipeline.WithClock(s.now),
		pipeline.WithLogger(log.Named("pipeline")),
	}
	if events != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithEventCreator(events))
	}
	for _, n := range s.notifiers() {
		pipelineOpts = append(pipelineOpts, pipeline.WithNotifier(n))
	}
	s.pipeline = pipeline.New(s.ledger, s.resolver, pipeline.NewRuleBased(s.engine, s.ledger), pipelineOpts...)
	return nil
}

// notifiers returns the announcement channels the pipeline calls after a
// commit. With notify_workers set they sit behind one queued pool.
func (s *Service) notifiers() []pipeline.Notifier {
	cfg, log := s.cfg, s.logger
	var out []pipeline.Notifier
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		slackOpts := []notify.SlackOption{notify.WithLogger(log.Named("slack"))}
		if s.slackAPIURL != "" {
			slackOpts = append(slackOpts, notify.WithAPIURL(s.slackAPIURL))
		}
		out = append(out, notify.NewSlack(cfg.SlackToken, cfg.SlackChannel, slackOpts...))
	}
	if len(out) == 0 || cfg.NotifyWorkers <= 0 {
		return out
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.NotifyQueueSize))
	s.notify = worker.NewPool(cfg.NotifyWorkers, q, out, worker.WithLogger(log.Named("notify")))
	// Workers outlive the start request and exit when Stop closes the queue.
	s.notify.Start(context.Background())
	return []pipeline.Notifier{s.notify}
}

// persister returns nil when no ledger path is configured, which keeps the
// ledger in memory.
func (s *Service) persister(ctx context.Context) (ledger.Persister, error) {
	if s.cfg.LedgerPath == "" {
		s.logger.Warn(ctx, "ledger_path is empty; interviews are kept in memory only")
		return nil, nil
	}
	repoLog := repository.WithLogger(s.logger.Named("repository"))
	switch s.cfg.LedgerBackend {
	case config.BackendSQLite:
		store, err := repository.NewSQLiteStore(ctx, s.cfg.LedgerPath, repoLog)
		if err != nil {
			return nil, err
		}
		s.sqlite = store
		return store, nil
	default:
		return repository.NewJSONFileStore(s.cfg.LedgerPath, repoLog), nil
	}
}

func rosterFromConfig(cfg *config.Config) []model.Interviewer {
	if len(cfg.Roster) == 0 {
		return nil
	}
	out := make([]model.Interviewer, 0, len(cfg.Roster))
	for _, iv := range cfg.Roster {
		maxPerWeek := iv.MaxPerWeek
		if maxPerWeek <= 0 {
			maxPerWeek = cfg.DefaultMaxPerWeek
		}
		tz := iv.Timezone
		if tz == "" {
			tz = cfg.DefaultTimezone
		}
		out = append(out, model.Interviewer{
			ID:         iv.ID,
			Name:       iv.Name,
			Email:      iv.Email,
			CalendarID: iv.CalendarID,
			Timezone:   tz,
			Specialty:  iv.Specialty,
			MaxPerWeek: maxPerWeek,
			Active:     iv.IsActive(),
		})
	}
	return out
}

// Stop halts the refresh job, waiting for a running refresh, delivers any
// queued announcements and closes the ledger store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping interview scheduler...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	s.teardown(ctx)

	s.started = false
	s.logger.Info(ctx, "interview scheduler stopped")
}

// teardown drains queued announcements and closes the ledger store.
func (s *Service) teardown(ctx context.Context) {
	if s.notify != nil {
		if err := s.notify.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "notification queue did not drain", logger.Error(err))
		}
		s.notify = nil
	}
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			s.logger.Warn(ctx, "closing ledger store failed", logger.Error(err))
		}
		s.sqlite = nil
	}
}

// RefreshWorkload publishes per-interviewer load and system gauges.
func (s *Service) RefreshWorkload(ctx context.Context) {
	s.mu.RLock()
	l, log := s.ledger, s.logger
	s.mu.RUnlock()
	if l == nil {
		return
	}
	refreshWorkload(ctx, l, s.cfg.FairnessWindowDays, log)
}

// refreshWorkload does not touch the service lock: the cron job runs it while
// Stop holds the lock and waits for the job.
func refreshWorkload(ctx context.Context, l *ledger.Ledger, days int, log logger.Logger) {
	snap := l.WorkloadSnapshot(days)
	for _, w := range snap {
		metrics.UpdateInterviewerLoad(w.InterviewerID, w.CountThisWeek, w.Deviation)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	log.Debug(ctx, "workload gauges refreshed", logger.Int("interviewers", len(snap)))
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Schedule runs one scheduling request through the pipeline.
func (s *Service) Schedule(ctx context.Context, req model.ScheduleRequest) (model.Result, error) {
	p, err := s.running()
	if err != nil {
		return model.Result{}, err
	}
	return p.Schedule(ctx, req)
}

// Preview ranks slots without committing.
func (s *Service) Preview(ctx context.Context, req model.PreviewRequest) (model.Preview, error) {
	p, err := s.running()
	if err != nil {
		return model.Preview{}, err
	}
	return p.Preview(ctx, req)
}

func (s *Service) running() (*pipeline.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.pipeline, nil
}

func (s *Service) book() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

// Roster returns every interviewer. It is empty before Start.
func (s *Service) Roster() []model.Interviewer {
	if l := s.book(); l != nil {
		return l.Roster()
	}
	return nil
}

// InterviewsSince returns interviews created in the last days, oldest first.
func (s *Service) InterviewsSince(days int, f ledger.Filter) []model.InterviewRecord {
	if l := s.book(); l != nil {
		return l.InterviewsSince(days, f)
	}
	return nil
}

// Upcoming returns interviews that have not started.
func (s *Service) Upcoming() []model.InterviewRecord {
	if l := s.book(); l != nil {
		return l.Upcoming()
	}
	return nil
}

// WorkloadSnapshot returns per-interviewer load over days.
func (s *Service) WorkloadSnapshot(days int) []model.Workload {
	if l := s.book(); l != nil {
		return l.WorkloadSnapshot(days)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"ledgerBackend":     s.cfg.LedgerBackend,
		"calendarProvider":  s.cfg.CalendarProvider,
		"fairnessWindow":    s.cfg.FairnessWindowDays,
		"capacityWindow":    s.cfg.CapacityWindowDays,
		"excludeAtCapacity": s.cfg.ExcludeAtCapacity,
	}
	if s.started {
		stats["uptime"] = s.now().Sub(s.startedAt).Round(time.Second).String()
		stats["interviewers"] = len(s.ledger.Roster())
		stats["activeInterviewers"] = len(s.ledger.Active())
		stats["interviews"] = s.ledger.Len()
		stats["upcoming"] = len(s.ledger.Upcoming())
		if s.notify != nil {
			stats["notificationQueue"] = s.notify.Len()
		}
		if s.calendarErr != nil {
			stats["calendarError"] = s.calendarErr.Error()
		}
	}
	return stats
}
