package client

import (
	"context"
	"fmt"

	"github.com/darmiel/callsign/internal/api"
	"github.com/darmiel/callsign/internal/tasks"
)

// ListTasks returns the status of every background task of the server.
func (c *Client) ListTasks(ctx context.Context) ([]tasks.TaskStatus, string, error) {
	var statuses []tasks.TaskStatus
	correlation, err := c.get(ctx, c.url().setPath(api.ListTasksRoute).build(), &statuses)
	return statuses, correlation, err
}

// TriggerTask schedules an immediate run of the named task. It does not wait
// for the run to finish.
func (c *Client) TriggerTask(ctx context.Context, name string) (string, error) {
	target := c.url().setPath(api.TriggerTaskRoute).setPathParam("name", name).build()

	var ack api.TriggerTaskResponse
	correlation, err := c.post(ctx, target, nil, &ack)
	if err != nil {
		return correlation, err
	}
	if ack.Task != name {
		return correlation, fmt.Errorf("server acknowledged task '%s' instead of '%s'", ack.Task, name)
	}
	return correlation, nil
}

// GetTaskLogs returns the log lines of the most recent run of the named task.
func (c *Client) GetTaskLogs(ctx context.Context, name string) ([]tasks.LogEntry, string, error) {
	var entries []tasks.LogEntry
	correlation, err := c.get(ctx, c.url().setPath(api.LogsForTaskRoute).setPathParam("name", name).build(), &entries)
	return entries, correlation, err
}
