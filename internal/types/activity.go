package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const ActivityTypeTaskComment = "task_comment"

// Activity is the append-only event log written by the activity pipeline.
// For task comments, GroupID is the task id for top-level comments and the
// parent comment's activity id for replies.
type Activity struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_group_type,priority:1" json:"group_id"`
	TeamID  uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Type     string         `gorm:"column:type;not null;index:idx_activity_group_type,priority:2" json:"type"`
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Activity) TableName() string {
	return "activity"
}

type activityMetadata struct {
	Comment string `json:"comment"`
}

// CommentText extracts the comment body from the metadata blob. Empty when
// the activity carries no comment payload.
func (a *Activity) CommentText() string {
	if len(a.Metadata) == 0 {
		return ""
	}
	var meta activityMetadata
	if err := json.Unmarshal(a.Metadata, &meta); err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Comment)
}

// NewCommentMetadata builds the metadata blob for a task comment activity.
func NewCommentMetadata(comment string) datatypes.JSON {
	raw, _ := json.Marshal(activityMetadata{Comment: comment})
	return datatypes.JSON(raw)
}
