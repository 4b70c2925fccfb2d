package app

import (
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/services"
)

type Services struct {
	Context  services.ContextService
	Title    services.TitleService
	Summary  services.SummaryService
	Activity services.ActivityService
	Agent    services.AgentRunner
	Bridge   services.CommentBridgeService
	Chat     services.ChatService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, repoSet Repos) Services {
	log.Info("Wiring services...")

	contextSvc := services.NewContextService(log, clients.KV, repoSet.User, repoSet.Team, cfg.ContextCacheTTL)
	titleSvc := services.NewTitleService(log, clients.OpenAI)
	summarySvc := services.NewSummaryService(log, clients.OpenAI, repoSet.Chat)
	activitySvc := services.NewActivityService(log, repoSet.Activity)

	agent := services.NewAgentRunner(log, clients.OpenAI, []services.AgentTool{
		services.NewTaskLookupTool(repoSet.Task),
	})

	bridge := services.NewCommentBridgeService(
		log,
		cfg.Bridge,
		clients.KV,
		repoSet.User,
		repoSet.Chat,
		repoSet.Activity,
		contextSvc,
		activitySvc,
		agent,
	)

	chatSvc := services.NewChatService(log, repoSet.Chat, titleSvc, summarySvc)

	return Services{
		Context:  contextSvc,
		Title:    titleSvc,
		Summary:  summarySvc,
		Activity: activitySvc,
		Agent:    agent,
		Bridge:   bridge,
		Chat:     chatSvc,
	}
}
