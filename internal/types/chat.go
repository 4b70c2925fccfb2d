package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	PartTypeText           = "text"
	PartTypeData           = "data"
	PartTypeToolInvocation = "tool-invocation"
)

// ThreadIDForTask derives the synthetic per-task conversation id. All
// comment-triggered turns on one task share this thread.
func ThreadIDForTask(taskID uuid.UUID) string {
	return fmt.Sprintf("task-%s-thread", taskID)
}

// ChatThread ids are strings, not uuids: task-scoped threads use the
// deterministic ThreadIDForTask form, regular chats use a generated uuid
// string. Created implicitly on first reference; messages only append.
type ChatThread struct {
	ID     string    `gorm:"primaryKey;column:id" json:"id"`
	TeamID uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`

	Title         string     `gorm:"column:title;not null;default:''" json:"title"`
	Summary       string     `gorm:"type:text;column:summary;not null;default:''" json:"summary"`
	LastSummaryAt *time.Time `gorm:"column:last_summary_at" json:"last_summary_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChatThread) TableName() string {
	return "chat_thread"
}

type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// Opaque payload for data and tool-invocation parts. The bridge never
	// interprets these beyond carrying them through.
	Payload map[string]any `json:"payload,omitempty"`
}

type MessageParts []MessagePart

// ChatMessage ids double as idempotency keys: a message derived from a task
// comment uses that comment's activity id, so reconciliation can never
// append the same turn twice.
type ChatMessage struct {
	ID       string    `gorm:"primaryKey;column:id" json:"id"`
	ThreadID string    `gorm:"not null;index;column:thread_id" json:"thread_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Role  string       `gorm:"column:role;not null;index" json:"role"`
	Parts MessageParts `gorm:"type:jsonb;serializer:json;column:parts;not null" json:"parts"`

	// CreatedAt is set by the writer, not the database: reconciled comments
	// keep their original comment timestamp so reload order is stable.
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChatMessage) TableName() string {
	return "chat_message"
}

// TextMessage builds a single-text-part message.
func TextMessage(id string, role string, text string) ChatMessage {
	return ChatMessage{
		ID:    id,
		Role:  role,
		Parts: MessageParts{{Type: PartTypeText, Text: text}},
	}
}

// TextParts returns the text of every text-typed part, in order.
func (m *ChatMessage) TextParts() []string {
	var out []string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			out = append(out, p.Text)
		}
	}
	return out
}

// LastText returns the final text-typed part, which is the part posted back
// as a comment reply.
func (m *ChatMessage) LastText() (string, bool) {
	for i := len(m.Parts) - 1; i >= 0; i-- {
		if m.Parts[i].Type == PartTypeText {
			return m.Parts[i].Text, true
		}
	}
	return "", false
}

// PlainText joins all text parts with single spaces.
func (m *ChatMessage) PlainText() string {
	return strings.Join(m.TextParts(), " ")
}
