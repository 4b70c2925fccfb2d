package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ForcedTool directs the agent to invoke one specific capability before
// answering.
type ForcedTool struct {
	Name   string
	Params map[string]any
}

const contextUnknown = "unknown"

// BuildAgentInstructions assembles the system instruction string for the
// routing agent. Pure and deterministic for identical input.
func BuildAgentInstructions(cc ConversationContext, forced *ForcedTool, webSearch bool) string {
	var sb strings.Builder

	sb.WriteString("You are Mimir, the task-management assistant for this workspace.\n")
	sb.WriteString("You help teams manage tasks, plans and discussions through tools.\n\n")

	sb.WriteString("Tool usage:\n")
	sb.WriteString("- Prefer calling tools and showing real workspace data over describing what you could do.\n")
	sb.WriteString("- Do not ask clarifying questions when a reasonable default exists.\n")
	sb.WriteString("- When the answer is the data itself, present it and stop; continue only when the user asked for analysis or next steps.\n\n")

	sb.WriteString("Formatting:\n")
	sb.WriteString("- Respond in markdown.\n")
	sb.WriteString("- Use ![](url) syntax when embedding images.\n\n")

	sb.WriteString("User and team context:\n")
	writeContextLine(&sb, "Full name", cc.FullName)
	writeContextLine(&sb, "Locale", cc.Locale)
	writeContextLine(&sb, "Date format", cc.DateFormat)
	writeContextLine(&sb, "Team name", cc.TeamName)
	writeContextLine(&sb, "Team description", cc.TeamDescription)
	writeContextLine(&sb, "Country code", cc.CountryCode)
	writeContextLine(&sb, "Request country", cc.RequestCountry)
	writeContextLine(&sb, "Request city", cc.RequestCity)
	writeContextLine(&sb, "Request timezone", cc.RequestTimezone)

	if forced != nil && strings.TrimSpace(forced.Name) != "" {
		sb.WriteString("\nRequired tool call:\n")
		sb.WriteString(fmt.Sprintf("1. Call the %q tool", forced.Name))
		if len(forced.Params) > 0 {
			// json.Marshal sorts map keys, which keeps the output stable.
			raw, _ := json.Marshal(forced.Params)
			sb.WriteString(fmt.Sprintf(" with parameters %s", string(raw)))
		}
		sb.WriteString(".\n")
		sb.WriteString("2. Present its results conversationally.\n")
	}

	if webSearch {
		sb.WriteString("\nYou MUST invoke the web-search capability before answering.\n")
	}

	return sb.String()
}

func writeContextLine(sb *strings.Builder, label, value string) {
	v := strings.TrimSpace(value)
	if v == "" {
		v = contextUnknown
	}
	sb.WriteString(fmt.Sprintf("- %s: %s\n", label, v))
}

// taskCommentDirective is appended when the agent answers inside a task
// comment thread instead of a chat.
const taskCommentDirective = `
This is not a chat conversation. Your response will be posted as a comment on a task.
- Do not greet the user.
- Do not restate the task title or description unless explicitly asked.
- Stay focused on what the comment asks.
`
