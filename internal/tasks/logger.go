package tasks

import (
	"github.com/rs/zerolog"

	"github.com/darmiel/callsign/internal/logging"
)

// newRunLogger logs to zerolog first and then into the task's log buffer.
func newRunLogger(task *RunnableTask, zlog zerolog.Logger) logging.InternalLogger {
	return logging.Tee(zlog, task.appendLog)
}
