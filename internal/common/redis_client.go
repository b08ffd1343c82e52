package common

import (
	"context"
	"time"

	"servercv/dashboard/internal/logging"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(addr, password string) *redis.Client {
	logging.Info("Initializing Redis client", "addr", addr)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// the pool keeps retrying, so startup continues
		logging.Error("Failed to ping Redis", "error", err)
		return client
	}

	logging.Info("Successfully connected to Redis")
	return client
}
