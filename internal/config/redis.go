package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for REDIS_ADDR, or nil when Redis is not configured
// or unreachable. Callers fall back to in-process state on nil.
func ConnectRedis(env Env) *redis.Client {
	if env.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         env.RedisAddr,
		Password:     env.RedisPassword,
		DB:           env.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warning: redis %s unreachable, using in-process idempotency store: %v", env.RedisAddr, err)
		_ = rdb.Close()
		return nil
	}
	log.Printf("connected to redis %s", env.RedisAddr)
	return rdb
}
