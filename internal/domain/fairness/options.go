package fairness

import "github.com/okian/interviewsched/pkg/logger"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWindow sets the rolling fairness window in days.
func WithWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

// WithSpecialtyBonus sets the score added on a specialty match.
func WithSpecialtyBonus(bonus float64) Option {
	return func(e *Engine) {
		e.bonus = bonus
	}
}

// WithExcludeAtCapacity controls whether at-capacity interviewers are
// dropped (true) or ranked last (false).
func WithExcludeAtCapacity(exclude bool) Option {
	return func(e *Engine) {
		e.exclude = exclude
	}
}

// WithSpecialtyMap sets the interview type to preferred specialties mapping.
func WithSpecialtyMap(m map[string][]string) Option {
	return func(e *Engine) {
		// Copy the map to avoid external modifications
		e.specialties = make(map[string][]string, len(m))
		for k, v := range m {
			e.specialties[k] = append([]string(nil), v...)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
