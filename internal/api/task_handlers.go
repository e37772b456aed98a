package api

import (
	"errors"
	"net/http"

	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/tasks"
)

// handleListTasks responds with the list of tasks and their statuses.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.taskManager.ListStatus(), http.StatusOK)
}

// TriggerTaskResponse acknowledges a task run scheduled in the background.
type TriggerTaskResponse struct {
	Task   string `json:"task"`
	Status string `json:"status"`
}

const taskTriggered = "triggered"

// handleTriggerTask triggers a specific task by its name.
func (s *Server) handleTriggerTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.taskManager.Trigger(name); err != nil {
		presenter.Error(w, r, err.Error(), taskErrorStatus(err))
		return
	}
	presenter.JSON(w, r, TriggerTaskResponse{Task: name, Status: taskTriggered}, http.StatusAccepted)
}

// handleLogsForTask retrieves logs for a specific task.
func (s *Server) handleLogsForTask(w http.ResponseWriter, r *http.Request) {
	logs, err := s.taskManager.GetLogs(r.PathValue("name"))
	if err != nil {
		presenter.Error(w, r, err.Error(), taskErrorStatus(err))
		return
	}
	presenter.JSON(w, r, logs, http.StatusOK)
}

func taskErrorStatus(err error) int {
	if errors.As(err, &tasks.TaskNotFoundError{}) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
