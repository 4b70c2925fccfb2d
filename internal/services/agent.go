package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/clients/openai"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

// AgentTool is an opaque capability the routing agent may invoke by name.
// Business tools register themselves at wiring time; the runtime never
// interprets their output beyond feeding it back to the model.
type AgentTool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, params map[string]any) (string, error)
}

// AgentRun describes one invocation of the routing agent.
type AgentRun struct {
	// Message is the new user turn the agent responds to.
	Message types.ChatMessage
	// History is the reconstructed transcript preceding Message.
	History []*types.ChatMessage
	// Instructions is the assembled system instruction string.
	Instructions string
	// MaxRounds bounds model round-trips; MaxSteps bounds tool invocations.
	// Iteration is finite by construction.
	MaxRounds int
	MaxSteps  int
	// OnFinish is invoked exactly once when the final assistant message has
	// been assembled. It is never invoked after a drain failure.
	OnFinish func(final types.ChatMessage)
}

// AgentStream is the handle on a running agent invocation. Drain must be
// called and read to exhaustion even when only the final message is needed;
// abandoning it leaks the underlying generation resource.
type AgentStream interface {
	Drain(ctx context.Context) error
}

type AgentRunner interface {
	Run(ctx context.Context, run AgentRun) (AgentStream, error)
}

type agentRunner struct {
	log    *logger.Logger
	client openai.Client
	tools  map[string]AgentTool
}

func NewAgentRunner(log *logger.Logger, client openai.Client, tools []AgentTool) AgentRunner {
	byName := make(map[string]AgentTool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &agentRunner{
		log:    log.With("service", "AgentRunner"),
		client: client,
		tools:  byName,
	}
}

func (r *agentRunner) Run(_ context.Context, run AgentRun) (AgentStream, error) {
	if run.MaxRounds <= 0 {
		return nil, fmt.Errorf("max rounds must be positive")
	}
	return &agentStream{runner: r, run: run}, nil
}

type agentStream struct {
	runner *agentRunner
	run    AgentRun
	once   sync.Once
	err    error
}

// toolCall is the envelope the model emits when it wants a capability. A
// response that is exactly this JSON object triggers an invocation; anything
// else is the final answer.
type toolCall struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

func (s *agentStream) Drain(ctx context.Context) error {
	s.once.Do(func() {
		final, err := s.runner.drain(ctx, s.run)
		if err != nil {
			s.err = err
			return
		}
		if s.run.OnFinish != nil {
			s.run.OnFinish(final)
		}
	})
	return s.err
}

func (r *agentRunner) drain(ctx context.Context, run AgentRun) (types.ChatMessage, error) {
	system := run.Instructions + "\n" + r.toolCatalog()

	transcript := renderTranscript(run.History, run.Message)
	parts := types.MessageParts{}
	steps := 0

	for round := 0; round < run.MaxRounds; round++ {
		text, err := r.client.StreamText(ctx, system, transcript, nil)
		if err != nil {
			return types.ChatMessage{}, fmt.Errorf("agent round %d: %w", round+1, err)
		}

		call, ok := parseToolCall(text)
		if !ok || steps >= run.MaxSteps {
			parts = append(parts, types.MessagePart{Type: types.PartTypeText, Text: strings.TrimSpace(text)})
			return types.ChatMessage{
				ID:    uuid.NewString(),
				Role:  types.RoleAssistant,
				Parts: parts,
			}, nil
		}

		steps++
		observation := r.invokeTool(ctx, call)
		parts = append(parts, types.MessagePart{
			Type: types.PartTypeToolInvocation,
			Payload: map[string]any{
				"tool":   call.Tool,
				"params": call.Params,
				"result": observation,
			},
		})
		transcript += fmt.Sprintf("\n\n[tool %s returned]\n%s", call.Tool, observation)
	}

	return types.ChatMessage{}, fmt.Errorf("agent exceeded %d rounds without a final answer", run.MaxRounds)
}

func (r *agentRunner) toolCatalog() string {
	if len(r.tools) == 0 {
		return ""
	}
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("\nAvailable tools. To call one, reply with only a JSON object {\"tool\": name, \"params\": {...}}:\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, r.tools[name].Description()))
	}
	return sb.String()
}

func (r *agentRunner) invokeTool(ctx context.Context, call toolCall) string {
	tool, ok := r.tools[call.Tool]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Tool)
	}
	out, err := tool.Invoke(ctx, call.Params)
	if err != nil {
		r.log.Warn("tool invocation failed", "tool", call.Tool, "error", err)
		return fmt.Sprintf("error: %s", err)
	}
	return out
}

func parseToolCall(text string) (toolCall, bool) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, "{") {
		return toolCall{}, false
	}
	var call toolCall
	if err := json.Unmarshal([]byte(trimmed), &call); err != nil {
		return toolCall{}, false
	}
	if strings.TrimSpace(call.Tool) == "" {
		return toolCall{}, false
	}
	return call, true
}

func renderTranscript(history []*types.ChatMessage, incoming types.ChatMessage) string {
	var lines []string
	for _, m := range history {
		if m.ID == incoming.ID {
			continue
		}
		for _, text := range m.TextParts() {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, text))
		}
	}
	for _, text := range incoming.TextParts() {
		lines = append(lines, fmt.Sprintf("%s: %s", incoming.Role, text))
	}
	return strings.Join(lines, "\n")
}
