package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bugboard/bugboard/config"
	"github.com/bugboard/bugboard/internal/notify"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PingTO   time.Duration
}

func RedisOptionsFrom(cfg config.RedisConfig) RedisOptions {
	return RedisOptions{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// OpenRedis connects and pings. An empty Addr is not an error: it returns a
// nil client and the caller keeps notifications in memory.
func OpenRedis(ctx context.Context, opt RedisOptions) (*redis.Client, error) {
	if opt.Addr == "" {
		return nil, nil
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()

	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NotificationStore picks the Redis store when rdb is set.
func NotificationStore(rdb *redis.Client) notify.Store {
	if rdb == nil {
		return notify.NewMemoryStore()
	}
	return notify.NewRedisStore(rdb)
}
