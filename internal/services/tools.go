package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/repos"
)

// taskLookupTool lets the agent read a task it was mentioned on. Further
// business tools register the same way at wiring time.
type taskLookupTool struct {
	taskRepo repos.TaskRepo
}

func NewTaskLookupTool(taskRepo repos.TaskRepo) AgentTool {
	return &taskLookupTool{taskRepo: taskRepo}
}

func (t *taskLookupTool) Name() string { return "get_task" }

func (t *taskLookupTool) Description() string {
	return "Look up a task by id. Params: {\"task_id\": uuid}. Returns title, description and status."
}

func (t *taskLookupTool) Invoke(ctx context.Context, params map[string]any) (string, error) {
	raw, _ := params["task_id"].(string)
	taskID, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid task_id %q", raw)
	}

	task, err := t.taskRepo.GetByID(ctx, nil, taskID)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(map[string]string{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
