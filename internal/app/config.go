package app

import (
	"time"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/services"
	"github.com/mimrai-org/mimrai-sub004/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	ContextCacheTTL time.Duration
	Bridge          services.BridgeConfig
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	contextTTLSeconds := utils.GetEnvAsInt("CONTEXT_CACHE_TTL_SECONDS", 3600, log)

	bridge := services.DefaultBridgeConfig()
	bridge.TaskCommentLimit = utils.GetEnvAsInt("BRIDGE_TASK_COMMENT_LIMIT", bridge.TaskCommentLimit, log)
	bridge.ReplyCommentLimit = utils.GetEnvAsInt("BRIDGE_REPLY_COMMENT_LIMIT", bridge.ReplyCommentLimit, log)
	bridge.MaxRounds = utils.GetEnvAsInt("BRIDGE_MAX_ROUNDS", bridge.MaxRounds, log)
	bridge.MaxSteps = utils.GetEnvAsInt("BRIDGE_MAX_STEPS", bridge.MaxSteps, log)
	bridge.DrainTimeout = time.Duration(utils.GetEnvAsInt("BRIDGE_DRAIN_TIMEOUT_SECONDS", int(bridge.DrainTimeout/time.Second), log)) * time.Second
	bridge.LeaseTTL = time.Duration(utils.GetEnvAsInt("BRIDGE_LEASE_TTL_SECONDS", int(bridge.LeaseTTL/time.Second), log)) * time.Second

	return Config{
		JWTSecretKey:    jwtSecretKey,
		ContextCacheTTL: time.Duration(contextTTLSeconds) * time.Second,
		Bridge:          bridge,
	}
}
