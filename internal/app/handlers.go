package app

import (
	"github.com/mimrai-org/mimrai-sub004/internal/http/handlers"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Chat     *handlers.ChatHandler
	Activity *handlers.ActivityHandler
}

func wireHandlers(log *logger.Logger, serviceSet Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   handlers.NewHealthHandler(),
		Chat:     handlers.NewChatHandler(serviceSet.Chat),
		Activity: handlers.NewActivityHandler(log, serviceSet.Activity, serviceSet.Bridge, serviceSet.Chat),
	}
}
