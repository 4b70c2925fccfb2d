package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mimrai-org/mimrai-sub004/internal/http/middleware"
	"github.com/mimrai-org/mimrai-sub004/internal/http/response"
	"github.com/mimrai-org/mimrai-sub004/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// GET /api/chat/threads?limit=50
func (h *ChatHandler) ListThreads(c *gin.Context) {
	teamID, ok := middleware.TeamID(c)
	if !ok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	threads, err := h.chat.ListThreads(c.Request.Context(), teamID, limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "list_threads_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"threads": threads})
}

// GET /api/chat/threads/:id
func (h *ChatHandler) GetThread(c *gin.Context) {
	teamID, ok := middleware.TeamID(c)
	if !ok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	thread, messages, err := h.chat.GetThread(c.Request.Context(), c.Param("id"), teamID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "thread_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"thread": thread, "messages": messages})
}
