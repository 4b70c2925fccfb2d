package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

func TestTaskLookupTool(t *testing.T) {
	taskID := uuid.New()
	repo := &fakeTaskRepo{tasks: map[uuid.UUID]*types.Task{
		taskID: {ID: taskID, Title: "Fix login", Description: "Passwords rejected", Status: "in_progress"},
	}}
	tool := NewTaskLookupTool(repo)

	out, err := tool.Invoke(context.Background(), map[string]any{"task_id": taskID.String()})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	for _, want := range []string{`"title":"Fix login"`, `"status":"in_progress"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestTaskLookupToolBadParams(t *testing.T) {
	tool := NewTaskLookupTool(&fakeTaskRepo{tasks: map[uuid.UUID]*types.Task{}})

	if _, err := tool.Invoke(context.Background(), map[string]any{"task_id": "not-a-uuid"}); err == nil {
		t.Error("expected error for malformed task_id")
	}
	if _, err := tool.Invoke(context.Background(), nil); err == nil {
		t.Error("expected error for missing task_id")
	}
	if _, err := tool.Invoke(context.Background(), map[string]any{"task_id": uuid.NewString()}); err == nil {
		t.Error("expected error for unknown task")
	}
}
