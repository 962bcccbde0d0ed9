package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/interviewsched/internal/loadtest"
)

func (c *cli) loadtestCmd() *cobra.Command {
	var cfg loadtest.Config
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Submit synthetic candidates to a running server and verify capacity held",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := loadtest.Run(cmd.Context(), cfg, c.log.Named("loadtest"))
			if report != nil {
				if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the server")
	f.IntVar(&cfg.Requests, "requests", loadtest.DefaultRequests, "number of schedule requests")
	f.IntVar(&cfg.Workers, "workers", loadtest.DefaultWorkers, "concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "per-request timeout")
	f.StringSliceVar(&cfg.Types, "types", loadtest.DefaultTypes, "interview types to cycle through")
	f.StringVar(&cfg.StartDate, "from", "", "first date to search, YYYY-MM-DD")
	f.StringVar(&cfg.EndDate, "to", "", "last date to search, YYYY-MM-DD")
	f.StringVar(&cfg.Timezone, "tz", "", "candidate IANA timezone")
	f.IntVar(&cfg.WindowDays, "days", 0, "workload window checked after the run")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated requests to this JSON file")
	return cmd
}
