package histogram

import (
	"github.com/okian/k0sqa/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets a logger used by LogSummary.
func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}
