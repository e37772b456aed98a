package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RunnableTask is a registered task and the state of its last run.
type RunnableTask struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	handler  TaskFunc

	registeredAt time.Time

	mu         sync.RWMutex
	running    bool
	runs       int
	lastRun    time.Time
	lastResult string
	logs       []LogEntry
}

// Run executes the task once unless it is already running. It reports whether
// the task was executed.
func (t *RunnableTask) Run(ctx context.Context) bool {
	l := log.With().Str("task", t.name).Logger()

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		l.Warn().Msg("task is already running, skipping execution")
		return false
	}
	t.running = true
	t.logs = make([]LogEntry, 0)
	t.mu.Unlock()

	logger := newRunLogger(t, l)
	logger.Info("starting task execution")

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	err := t.handler(ctx, logger)
	duration := time.Since(start)

	if err != nil {
		logger.Error("task failed after %s: %v", duration, err)
	} else {
		logger.Info("task completed successfully in %s", duration)
	}

	t.mu.Lock()
	t.running = false
	t.runs++
	t.lastRun = start
	if err != nil {
		t.lastResult = fmt.Sprintf("failed: %v", err)
	} else {
		t.lastResult = "success"
	}
	t.mu.Unlock()
	return true
}

func (t *RunnableTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var next time.Time
	if t.interval > 0 {
		if !t.lastRun.IsZero() {
			next = t.lastRun.Add(t.interval)
		} else {
			next = t.registeredAt.Add(t.interval)
		}
	}

	return TaskStatus{
		Name:       t.name,
		Interval:   t.interval,
		Running:    t.running,
		Runs:       t.runs,
		LastRun:    t.lastRun,
		LastResult: t.lastResult,
		NextRun:    next,
	}
}

// Logs returns a copy of the logs of the current or last run.
func (t *RunnableTask) Logs() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cpy := make([]LogEntry, len(t.logs))
	copy(cpy, t.logs)
	return cpy
}

func (t *RunnableTask) appendLog(level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logs = append(t.logs, LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
	})
	if len(t.logs) > MaxLogsPerTask {
		t.logs = t.logs[1:]
	}
}
