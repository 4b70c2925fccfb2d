package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/repos"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type CreateTaskCommentInput struct {
	TaskID  uuid.UUID
	Comment string
	// ReplyTo, when set, threads the comment under an existing comment.
	ReplyTo *uuid.UUID
	UserID  uuid.UUID
	TeamID  uuid.UUID
}

type ActivityService interface {
	CreateTaskComment(ctx context.Context, input CreateTaskCommentInput) (*types.Activity, error)
}

type activityService struct {
	log          *logger.Logger
	activityRepo repos.ActivityRepo
}

func NewActivityService(log *logger.Logger, activityRepo repos.ActivityRepo) ActivityService {
	return &activityService{
		log:          log.With("service", "ActivityService"),
		activityRepo: activityRepo,
	}
}

func (s *activityService) CreateTaskComment(ctx context.Context, input CreateTaskCommentInput) (*types.Activity, error) {
	if strings.TrimSpace(input.Comment) == "" {
		return nil, fmt.Errorf("comment text required")
	}

	groupID := input.TaskID
	if input.ReplyTo != nil {
		groupID = *input.ReplyTo
	}

	activity := &types.Activity{
		ID:       uuid.New(),
		GroupID:  groupID,
		TeamID:   input.TeamID,
		UserID:   input.UserID,
		Type:     types.ActivityTypeTaskComment,
		Metadata: types.NewCommentMetadata(input.Comment),
	}

	created, err := s.activityRepo.Create(ctx, nil, []*types.Activity{activity})
	if err != nil {
		return nil, fmt.Errorf("create task comment: %w", err)
	}
	return created[0], nil
}
