package tasks

import (
	"context"
	"time"

	"github.com/darmiel/callsign/internal/logging"
)

// TaskFunc is the unit of work.
// The logger stores the output of the current run so it can be inspected later.
type TaskFunc func(ctx context.Context, logger logging.InternalLogger) error

type TaskStatus struct {
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval"`
	Running    bool          `json:"running"`
	Runs       int           `json:"runs"`
	LastRun    time.Time     `json:"last_run,omitzero"`
	LastResult string        `json:"last_result,omitempty"`
	NextRun    time.Time     `json:"next_run,omitzero"`
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level,omitempty"`
	Message string    `json:"message,omitempty"`
}
