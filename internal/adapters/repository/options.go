package repository

import "github.com/okian/interviewsched/pkg/logger"

type options struct {
	log logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func apply(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
