package task

import (
	"github.com/okian/k0sqa/internal/domain/selection"
	"github.com/okian/k0sqa/pkg/logger"
)

// Option applies a configuration option to the Task.
type Option func(*Task)

// WithSelector sets a selector with non-default cuts.
func WithSelector(sel *selection.Selector) Option {
	return func(t *Task) {
		if sel != nil {
			t.sel = sel
		}
	}
}

// WithEventSelection gates V0 processing on the collision quality flag.
func WithEventSelection(enabled bool) Option {
	return func(t *Task) {
		t.eventSelection = enabled
	}
}

// WithLogger sets a custom logger for the task.
func WithLogger(log logger.Logger) Option {
	return func(t *Task) {
		if log != nil {
			t.log = log
		}
	}
}
