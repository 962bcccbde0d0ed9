package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SCHED_"
	envConfig  = "SCHED_CONFIG"
	maxDayHour = 24
)

// LoadOption adjusts how Load finds its sources.
type LoadOption func(*loadOptions)

type loadOptions struct {
	file string
}

// WithConfigFile names the YAML file to load. It takes precedence over SCHED_CONFIG.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from WithConfigFile or SCHED_CONFIG
//  3. env (prefix SCHED_)
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	o := &loadOptions{file: os.Getenv(envConfig)}
	for _, opt := range opts {
		opt(o)
	}

	base := New()
	k := koanf.New(".")

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, o.file, err)
		}
	}

	// SCHED_CALENDAR_TIMEOUT_MS -> calendar_timeout_ms. Underscores are kept
	// so flat keys match the koanf tags on the struct.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// SCHED_CONFIG names the file itself and is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkdayStartHour < 0 || c.WorkdayEndHour > maxDayHour || c.WorkdayStartHour >= c.WorkdayEndHour:
		return fmt.Errorf("%w: workday hours must satisfy 0 <= start < end <= 24, got %d-%d",
			ErrInvalidConfig, c.WorkdayStartHour, c.WorkdayEndHour)
	case c.FairnessWindowDays <= 0 || c.CapacityWindowDays <= 0:
		return fmt.Errorf("%w: fairness and capacity windows must be positive", ErrInvalidConfig)
	case c.DefaultRangeDays < 0:
		return fmt.Errorf("%w: default_range_days must not be negative", ErrInvalidConfig)
	case c.PreviewTopN <= 0:
		return fmt.Errorf("%w: preview_top_n must be positive", ErrInvalidConfig)
	case c.CalendarTimeoutMS <= 0:
		return fmt.Errorf("%w: calendar_timeout_ms must be positive", ErrInvalidConfig)
	case c.NotifyWorkers < 0 || (c.NotifyWorkers > 0 && c.NotifyQueueSize <= 0):
		return fmt.Errorf("%w: notify_workers must not be negative and needs a positive notify_queue_size", ErrInvalidConfig)
	}

	switch c.LedgerBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown ledger_backend %q", ErrInvalidConfig, c.LedgerBackend)
	}
	switch c.CalendarProvider {
	case CalendarNone, "":
	case CalendarGoogle:
		if c.CalendarCredentialsFile == "" {
			return fmt.Errorf("%w: calendar_credentials_file is required for the google provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown calendar_provider %q", ErrInvalidConfig, c.CalendarProvider)
	}

	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("%w: default_timezone: %w", ErrInvalidConfig, err)
	}
	seen := make(map[string]struct{}, len(c.Roster))
	for i, iv := range c.Roster {
		if iv.ID == "" {
			return fmt.Errorf("%w: roster[%d] has no id", ErrInvalidConfig, i)
		}
		if _, dup := seen[iv.ID]; dup {
			return fmt.Errorf("%w: duplicate roster id %q", ErrInvalidConfig, iv.ID)
		}
		seen[iv.ID] = struct{}{}
		if _, err := time.LoadLocation(iv.Timezone); iv.Timezone != "" && err != nil {
			return fmt.Errorf("%w: roster %q timezone: %w", ErrInvalidConfig, iv.ID, err)
		}
	}
	return nil
}
