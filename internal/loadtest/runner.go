package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/okian/interviewsched/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
)

type outcome struct {
	status int
	code   string
	err    error
}

// Run checks the service is healthy, submits the generated requests
// concurrently, then reads the workload and verifies no interviewer went past
// their weekly capacity. The report is returned even when verification fails.
func Run(ctx context.Context, c Config, log logger.Logger) (*Report, error) {
	cfg := c.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()
	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Strings("types", cfg.Types))

	client := newHTTPClient(cfg.Timeout)
	if err := checkHealth(ctx, client, cfg.BaseURL); err != nil {
		return nil, err
	}

	reqs := generateRequests(cfg)
	if cfg.OutputFile != "" {
		if err := saveRequests(cfg.OutputFile, reqs); err != nil {
			log.Warn(ctx, "failed to save generated requests", logger.Error(err))
		}
	}

	stats := submit(ctx, client, cfg, reqs)
	stats.Duration = time.Since(start)
	log.Info(ctx, "requests submitted",
		logger.Int("committed", stats.Committed),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed))

	load, err := fetchWorkload(ctx, client, cfg)
	if err != nil {
		return &Report{Stats: stats}, err
	}
	report := &Report{Stats: stats, PerInterviewer: map[string]int{}}
	lo, hi := -1, 0
	var over []string
	for _, w := range load {
		report.PerInterviewer[w.InterviewerID] = w.CountInWindow
		if lo < 0 || w.CountInWindow < lo {
			lo = w.CountInWindow
		}
		hi = max(hi, w.CountInWindow)
		if w.MaxPerWeek > 0 && w.CountThisWeek > w.MaxPerWeek {
			over = append(over, w.InterviewerID)
		}
	}
	if lo >= 0 {
		report.Spread = hi - lo
	}
	if len(over) > 0 {
		return report, fmt.Errorf("%w: %v", ErrOverCapacity, over)
	}
	log.Info(ctx, "load run verified", logger.Int("spread", report.Spread))
	return report, nil
}

func checkHealth(ctx context.Context, client *httpClient, baseURL string) error {
	status, _, err := client.get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// submit fans the requests out to cfg.Workers goroutines.
func submit(ctx context.Context, client *httpClient, cfg Config, reqs []Request) Stats {
	url := cfg.BaseURL + "/interviews"
	jobs := make(chan Request, cfg.Workers*2)
	results := make(chan outcome, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				results <- submitOne(ctx, client, url, r)
			}
		}()
	}
feed:
	for _, r := range reqs {
		select {
		case jobs <- r:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	stats := Stats{Failures: map[string]int{}}
	for o := range results {
		stats.Submitted++
		switch {
		case o.err != nil:
			stats.Failed++
			stats.Failures["transport"]++
		case o.status == http.StatusCreated:
			stats.Committed++
		case o.status == http.StatusUnprocessableEntity || o.status == http.StatusConflict:
			stats.Rejected++
			stats.Failures[o.code]++
		default:
			stats.Failed++
			stats.Failures["http_"+strconv.Itoa(o.status)]++
		}
	}
	return stats
}

func submitOne(ctx context.Context, client *httpClient, url string, r Request) outcome {
	status, body, err := client.postJSON(ctx, url, r)
	if err != nil {
		return outcome{err: err}
	}
	var res struct {
		Failure *struct {
			Code string `json:"code"`
		} `json:"failure"`
	}
	o := outcome{status: status}
	if json.Unmarshal(body, &res) == nil && res.Failure != nil {
		o.code = res.Failure.Code
	}
	return o
}

func fetchWorkload(ctx context.Context, client *httpClient, cfg Config) ([]Workload, error) {
	url := cfg.BaseURL + "/workload"
	if cfg.WindowDays > 0 {
		url += "?days=" + strconv.Itoa(cfg.WindowDays)
	}
	status, body, err := client.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("workload: status %d", status)
	}
	var out struct {
		Interviewers []Workload `json:"interviewers"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	return out.Interviewers, nil
}

func saveRequests(filename string, reqs []Request) error {
	if len(reqs) == 0 {
		return ErrNoRequests
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, filePermission)
}
