package reader

import (
	"github.com/okian/k0sqa/pkg/logger"
)

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithLogger sets a custom logger for the reader.
func WithLogger(log logger.Logger) Option {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}
