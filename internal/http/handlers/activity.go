package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/http/middleware"
	"github.com/mimrai-org/mimrai-sub004/internal/http/response"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/services"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type ActivityHandler struct {
	log      *logger.Logger
	activity services.ActivityService
	bridge   services.CommentBridgeService
	chat     services.ChatService
}

func NewActivityHandler(log *logger.Logger, activity services.ActivityService, bridge services.CommentBridgeService, chat services.ChatService) *ActivityHandler {
	return &ActivityHandler{
		log:      log.With("handler", "ActivityHandler"),
		activity: activity,
		bridge:   bridge,
		chat:     chat,
	}
}

type createTaskCommentReq struct {
	TaskID  uuid.UUID  `json:"task_id" binding:"required"`
	Comment string     `json:"comment" binding:"required"`
	ReplyTo *uuid.UUID `json:"reply_to"`
}

// POST /api/activities/task-comments
//
// Creates the comment, then runs the agent bridge on it. A bridge failure
// does not fail the comment creation; the caller owns retry policy for the
// missing reply.
func (h *ActivityHandler) CreateTaskComment(c *gin.Context) {
	userID, uok := middleware.UserID(c)
	teamID, tok := middleware.TeamID(c)
	if !uok || !tok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	var req createTaskCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	created, err := h.activity.CreateTaskComment(c.Request.Context(), services.CreateTaskCommentInput{
		TaskID:  req.TaskID,
		Comment: req.Comment,
		ReplyTo: req.ReplyTo,
		UserID:  userID,
		TeamID:  teamID,
	})
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_comment_failed", err)
		return
	}

	if err := h.bridge.HandleTaskComment(c.Request.Context(), req.TaskID, created); err != nil {
		h.log.Error("agent bridge failed", "task_id", req.TaskID, "comment_id", created.ID, "error", err)
	} else {
		threadID := types.ThreadIDForTask(req.TaskID)
		if err := h.chat.RefreshThreadMeta(c.Request.Context(), threadID, teamID); err != nil {
			h.log.Warn("thread meta refresh failed", "thread_id", threadID, "error", err)
		}
	}

	response.RespondOK(c, gin.H{"activity": created})
}
