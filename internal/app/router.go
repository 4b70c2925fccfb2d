package app

import (
	"github.com/gin-gonic/gin"

	"github.com/mimrai-org/mimrai-sub004/internal/http/middleware"
)

func wireRouter(handlerSet Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handlerSet.Health.Check)

	api := router.Group("/api")
	api.Use(auth.RequireAuth())
	{
		api.GET("/chat/threads", handlerSet.Chat.ListThreads)
		api.GET("/chat/threads/:id", handlerSet.Chat.GetThread)
		api.POST("/activities/task-comments", handlerSet.Activity.CreateTaskComment)
	}

	return router
}
