package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/interviewsched/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PreviewTopN, convey.ShouldEqual, 5)
				convey.So(cfg.CommitGuard, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCHED_ADDR", ":8080")
			_ = os.Setenv("SCHED_FAIRNESS_WINDOW_DAYS", "14")
			_ = os.Setenv("SCHED_SPECIALTY_BONUS", "2.5")
			_ = os.Setenv("SCHED_EXCLUDE_AT_CAPACITY", "false")
			_ = os.Setenv("SCHED_DEFAULT_TIMEZONE", "Europe/Berlin")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FairnessWindowDays, convey.ShouldEqual, 14)
				convey.So(cfg.SpecialtyBonus, convey.ShouldEqual, 2.5)
				convey.So(cfg.ExcludeAtCapacity, convey.ShouldBeFalse)
				convey.So(cfg.DefaultTimezone, convey.ShouldEqual, "Europe/Berlin")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
ledger_backend: sqlite
ledger_path: /tmp/ledger.db
specialty_map:
  ml_ai: ["ML/AI"]
roster:
  - id: sa1
    name: Sarah Chen
    email: sarah@example.com
    timezone: America/New_York
    specialty: Data Engineering
    max_per_week: 4
  - id: sa2
    name: Marcus Johnson
    timezone: America/Los_Angeles
    specialty: ML/AI
    active: false
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCHED_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LedgerBackend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.SpecialtyMap["ml_ai"], convey.ShouldResemble, []string{"ML/AI"})
				convey.So(cfg.Roster, convey.ShouldHaveLength, 2)
				convey.So(cfg.Roster[0].MaxPerWeek, convey.ShouldEqual, 4)
				convey.So(cfg.Roster[0].IsActive(), convey.ShouldBeTrue)
				convey.So(cfg.Roster[1].IsActive(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the file is named through an option and env also sets a key", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\npreview_top_n: 3\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCHED_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithConfigFile(tmpFile))

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PreviewTopN, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(ctx, config.WithConfigFile(tmpFile))

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SCHED_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SCHED_PREVIEW_TOP_N", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()

		cases := []struct {
			name string
			env  map[string]string
			msg  string
		}{
			{"empty addr", map[string]string{"SCHED_ADDR": ""}, "addr must not be empty"},
			{"inverted workday", map[string]string{"SCHED_WORKDAY_START_HOUR": "18"}, "workday hours"},
			{"zero fairness window", map[string]string{"SCHED_FAIRNESS_WINDOW_DAYS": "0"}, "windows must be positive"},
			{"unknown backend", map[string]string{"SCHED_LEDGER_BACKEND": "redis"}, "unknown ledger_backend"},
			{"unknown provider", map[string]string{"SCHED_CALENDAR_PROVIDER": "outlook"}, "unknown calendar_provider"},
			{"google without credentials", map[string]string{"SCHED_CALENDAR_PROVIDER": "google"}, "calendar_credentials_file"},
			{"bad timezone", map[string]string{"SCHED_DEFAULT_TIMEZONE": "Mars/Olympus"}, "default_timezone"},
			{"negative notify workers", map[string]string{"SCHED_NOTIFY_WORKERS": "-1"}, "notify_workers"},
			{"workers without a queue", map[string]string{"SCHED_NOTIFY_QUEUE_SIZE": "0"}, "notify_queue_size"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				for k, v := range tc.env {
					_ = os.Setenv(k, v)
				}
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
					convey.So(cfg, convey.ShouldBeNil)
				})
			})
		}

		convey.Convey("When the roster repeats an id", func() {
			cfg := config.New()
			cfg.Roster = []config.Interviewer{{ID: "sa1"}, {ID: "sa1"}}

			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "duplicate roster id")
		})

		convey.Convey("When a roster entry has a bad timezone", func() {
			cfg := config.New()
			cfg.Roster = []config.Interviewer{{ID: "sa1", Timezone: "Nowhere/Land"}}

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SCHED_CONFIG",
		"SCHED_ADDR",
		"SCHED_FAIRNESS_WINDOW_DAYS",
		"SCHED_SPECIALTY_BONUS",
		"SCHED_EXCLUDE_AT_CAPACITY",
		"SCHED_DEFAULT_TIMEZONE",
		"SCHED_PREVIEW_TOP_N",
		"SCHED_WORKDAY_START_HOUR",
		"SCHED_LEDGER_BACKEND",
		"SCHED_CALENDAR_PROVIDER",
		"SCHED_NOTIFY_WORKERS",
		"SCHED_NOTIFY_QUEUE_SIZE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "sched-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
