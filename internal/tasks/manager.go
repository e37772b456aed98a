package tasks

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	MaxLogsPerTask     = 1000
	DefaultTaskTimeout = 5 * time.Minute
)

// Manager runs registered tasks periodically and on demand.
type Manager struct {
	mu    sync.RWMutex
	tasks map[string]*RunnableTask

	ctx     context.Context
	wg      sync.WaitGroup
	started bool
}

func NewManager() *Manager {
	return &Manager{
		tasks: make(map[string]*RunnableTask),
		ctx:   context.Background(),
	}
}

// Register adds a task. Tasks with a positive interval are scheduled once the
// manager is started, or immediately if it already is.
func (m *Manager) Register(name string, interval time.Duration, fn TaskFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[name]; exists {
		return TaskExistsError{Name: name}
	}
	task := &RunnableTask{
		name:         name,
		interval:     interval,
		timeout:      DefaultTaskTimeout,
		handler:      fn,
		registeredAt: time.Now(),
		logs:         make([]LogEntry, 0),
	}
	m.tasks[name] = task

	if m.started {
		m.schedule(task)
	}
	return nil
}

// Start schedules all periodic tasks until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true
	m.ctx = ctx
	for _, task := range m.tasks {
		m.schedule(task)
	}
}

// Wait blocks until all schedulers returned after the start context is done.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Trigger runs the task in the background.
func (m *Manager) Trigger(name string) error {
	task, err := m.get(name)
	if err != nil {
		return err
	}

	m.mu.RLock()
	ctx := m.ctx
	m.mu.RUnlock()

	go task.Run(ctx)
	return nil
}

// RunNow runs the task and waits for it to finish.
func (m *Manager) RunNow(ctx context.Context, name string) (TaskStatus, error) {
	task, err := m.get(name)
	if err != nil {
		return TaskStatus{}, err
	}
	task.Run(ctx)
	return task.Status(), nil
}

// ListStatus returns the status of all tasks sorted by name.
func (m *Manager) ListStatus() []TaskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]TaskStatus, 0, len(m.tasks))
	for _, task := range m.tasks {
		list = append(list, task.Status())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func (m *Manager) GetLogs(name string) ([]LogEntry, error) {
	task, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return task.Logs(), nil
}

func (m *Manager) get(name string) (*RunnableTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[name]
	if !ok {
		return nil, TaskNotFoundError{Name: name}
	}
	return task, nil
}

// schedule must be called with m.mu held.
func (m *Manager) schedule(task *RunnableTask) {
	if task.interval <= 0 {
		return
	}
	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(task.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				task.Run(ctx)
			}
		}
	}()
}
