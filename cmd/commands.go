package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/interviewsched/internal/app"
	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
)

// ErrNotScheduled is returned by the schedule command when the pipeline
// failed; the failure itself is printed.
var ErrNotScheduled = errors.New("interview not scheduled")

// rangeFlags are shared by schedule and preview.
type rangeFlags struct {
	interviewType string
	duration      int
	from          string
	to            string
	tz            string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.interviewType, "type", "", "interview type, e.g. coding or ml_ai")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "duration in minutes (default 60)")
	cmd.Flags().StringVar(&f.from, "from", "", "first date to search, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.to, "to", "", "last date to search, YYYY-MM-DD (default from + default_range_days)")
	cmd.Flags().StringVar(&f.tz, "tz", "", "candidate IANA timezone (default default_timezone)")
	_ = cmd.MarkFlagRequired("type")
}

func (f *rangeFlags) dates() (time.Time, time.Time, error) {
	from, err := parseDate("from", f.from)
	if err != nil {
		return from, time.Time{}, err
	}
	to, err := parseDate("to", f.to)
	return from, to, err
}

func parseDate(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s %q: must be YYYY-MM-DD", flag, v)
	}
	return t, nil
}

// withService starts a service for the duration of fn.
func (c *cli) withService(ctx context.Context, fn func(*app.Service) error) error {
	svc := c.service()
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(ctx)
	return fn(svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) scheduleCmd() *cobra.Command {
	var (
		rf          rangeFlags
		name, email string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Find a fair slot and book the interview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := rf.dates()
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(svc *app.Service) error {
				res, err := svc.Schedule(cmd.Context(), model.ScheduleRequest{
					CandidateName:     name,
					CandidateEmail:    email,
					InterviewType:     rf.interviewType,
					DurationMinutes:   rf.duration,
					From:              from,
					To:                to,
					CandidateTimezone: rf.tz,
				})
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if !res.Committed() {
					return fmt.Errorf("%w: %s", ErrNotScheduled, res.Failure.Code)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "candidate name")
	cmd.Flags().StringVar(&email, "email", "", "candidate email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	rf.bind(cmd)
	return cmd
}

func (c *cli) previewCmd() *cobra.Command {
	var (
		rf  rangeFlags
		top int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Rank candidate slots without booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := rf.dates()
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(svc *app.Service) error {
				pv, err := svc.Preview(cmd.Context(), model.PreviewRequest{
					InterviewType:     rf.interviewType,
					DurationMinutes:   rf.duration,
					From:              from,
					To:                to,
					CandidateTimezone: rf.tz,
					TopN:              top,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pv)
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "number of recommendations (default preview_top_n)")
	rf.bind(cmd)
	return cmd
}

func (c *cli) workloadCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Show per-interviewer load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				days = c.cfg.FairnessWindowDays
			}
			return c.withService(cmd.Context(), func(svc *app.Service) error {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"window_days":  days,
					"interviewers": svc.WorkloadSnapshot(days),
				})
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "rolling window in days (default fairness_window_days)")
	return cmd
}

func (c *cli) interviewsCmd() *cobra.Command {
	var (
		upcoming    bool
		sinceDays   int
		interviewer string
	)
	cmd := &cobra.Command{
		Use:   "interviews",
		Short: "List interview history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd.Context(), func(svc *app.Service) error {
				if upcoming {
					return printJSON(cmd.OutOrStdout(), svc.Upcoming())
				}
				return printJSON(cmd.OutOrStdout(), svc.InterviewsSince(sinceDays, ledger.Filter{InterviewerID: interviewer}))
			})
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "only interviews that have not started")
	cmd.Flags().IntVar(&sinceDays, "since-days", 30, "history window in days")
	cmd.Flags().StringVar(&interviewer, "interviewer", "", "only this interviewer id")
	return cmd
}
