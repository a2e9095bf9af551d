package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// initRedis initializes the Redis connection
func initRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis:6379"
	}

	opt, err := redis.ParseURL(fmt.Sprintf("redis://%s", redisURL))
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	redisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	return nil
}

func expensesCacheKey(userID int) string {
	return fmt.Sprintf("expenses:%d", userID)
}

func breakdownCacheKey(userID int, period string) string {
	return fmt.Sprintf("ai:breakdown:%d:%s", userID, period)
}

// invalidateUserCaches drops every cached view that an expense write can
// affect for one user.
func invalidateUserCaches(ctx context.Context, userID int) {
	if redisClient == nil {
		return
	}
	redisClient.Del(ctx,
		expensesCacheKey(userID),
		breakdownCacheKey(userID, "week"),
		breakdownCacheKey(userID, "month"),
		breakdownCacheKey(userID, "year"),
	)
}
