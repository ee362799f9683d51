package worker

import (
	"github.com/verdantquest/questboard/pkg/logger"
)

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithSnapshotSize sets how many entries each published snapshot carries.
func WithSnapshotSize(k int) Option {
	return func(w *Worker) {
		if k > 0 {
			w.snapshotSize = k
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
