// Package worker delivers queued announcements to notifiers in the background.
package worker

import (
	"time"

	"github.com/okian/interviewsched/pkg/logger"
)

type settings struct {
	name    string
	timeout time.Duration
	logger  logger.Logger
}

// Option applies a configuration option to a worker or a pool.
type Option func(*settings)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithDeliveryTimeout bounds each notifier call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.logger = log
		}
	}
}
