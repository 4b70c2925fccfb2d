package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/mimrai-org/mimrai-sub004/internal/clients/openai"
	"github.com/mimrai-org/mimrai-sub004/internal/clients/redis"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
)

type Clients struct {
	KV     redis.KV
	OpenAI openai.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis is optional: without REDIS_ADDR the in-process cache is used
	// and the bridge lease degrades to a no-op across processes.
	var kv redis.KV
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		k, err := redis.NewKV(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis kv: %w", err)
		}
		kv = k
	} else {
		log.Warn("REDIS_ADDR not set, using in-process cache")
		kv = redis.NewMemoryKV()
	}

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		_ = kv.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	return Clients{
		KV:     kv,
		OpenAI: openaiClient,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.KV != nil {
		_ = c.KV.Close()
	}
}
