package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
)

// KV is the small key-value surface the services need: TTL'd get/set for
// context snapshots and a SetNX lease for per-thread mutual exclusion.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key string) error
	Close() error
}

type kv struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewKV(log *logger.Logger) (KV, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &kv{
		log: log.With("service", "RedisKV"),
		rdb: rdb,
	}, nil
}

func (k *kv) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := k.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (k *kv) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return k.rdb.Set(ctx, key, value, ttl).Err()
}

func (k *kv) AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return k.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (k *kv) ReleaseLease(ctx context.Context, key string) error {
	return k.rdb.Del(ctx, key).Err()
}

func (k *kv) Close() error {
	return k.rdb.Close()
}
