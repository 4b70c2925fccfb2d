package services

import (
	"strings"
	"testing"
)

func TestBuildAgentInstructionsDeterministic(t *testing.T) {
	cc := ConversationContext{
		FullName:    "Dana Reyes",
		Locale:      "en-US",
		TeamName:    "Platform",
		CountryCode: "US",
	}
	forced := &ForcedTool{
		Name:   "list_tasks",
		Params: map[string]any{"status": "open", "assignee": "me", "limit": 5},
	}

	first := BuildAgentInstructions(cc, forced, true)
	for i := 0; i < 20; i++ {
		if got := BuildAgentInstructions(cc, forced, true); got != first {
			t.Fatalf("instruction output differs across identical calls")
		}
	}
}

func TestBuildAgentInstructionsUnknownSentinel(t *testing.T) {
	out := BuildAgentInstructions(ConversationContext{FullName: "Dana Reyes"}, nil, false)

	if !strings.Contains(out, "- Full name: Dana Reyes\n") {
		t.Errorf("missing populated context line:\n%s", out)
	}
	if !strings.Contains(out, "- Locale: unknown\n") {
		t.Errorf("blank locale not rendered as unknown:\n%s", out)
	}
	if !strings.Contains(out, "- Request timezone: unknown\n") {
		t.Errorf("blank request timezone not rendered as unknown:\n%s", out)
	}
}

func TestBuildAgentInstructionsForcedTool(t *testing.T) {
	forced := &ForcedTool{Name: "get_task", Params: map[string]any{"task_id": "t-42"}}
	out := BuildAgentInstructions(ConversationContext{}, forced, false)

	if !strings.Contains(out, `1. Call the "get_task" tool with parameters {"task_id":"t-42"}.`) {
		t.Errorf("forced tool directive malformed:\n%s", out)
	}
	if !strings.Contains(out, "2. Present its results conversationally.") {
		t.Errorf("forced tool follow-up step missing:\n%s", out)
	}

	plain := BuildAgentInstructions(ConversationContext{}, nil, false)
	if strings.Contains(plain, "Required tool call") {
		t.Errorf("directive present without a forced tool:\n%s", plain)
	}
}

func TestBuildAgentInstructionsForcedToolBlankNameIgnored(t *testing.T) {
	out := BuildAgentInstructions(ConversationContext{}, &ForcedTool{Name: "  "}, false)
	if strings.Contains(out, "Required tool call") {
		t.Errorf("blank-named forced tool produced a directive:\n%s", out)
	}
}

func TestBuildAgentInstructionsWebSearchClause(t *testing.T) {
	with := BuildAgentInstructions(ConversationContext{}, nil, true)
	without := BuildAgentInstructions(ConversationContext{}, nil, false)

	const clause = "You MUST invoke the web-search capability before answering."
	if !strings.Contains(with, clause) {
		t.Errorf("web search clause missing:\n%s", with)
	}
	if strings.Contains(without, clause) {
		t.Errorf("web search clause present when disabled:\n%s", without)
	}
}

func TestTaskCommentDirectiveShape(t *testing.T) {
	if !strings.Contains(taskCommentDirective, "posted as a comment on a task") {
		t.Errorf("directive missing framing: %q", taskCommentDirective)
	}
	if !strings.Contains(taskCommentDirective, "Do not greet the user.") {
		t.Errorf("directive missing greeting rule: %q", taskCommentDirective)
	}
}
