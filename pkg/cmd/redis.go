package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisCache builds a redis client for the query cache. An empty URL
// disables caching and returns nil.
func NewRedisCache(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("invalid redis URL: %w", err))
	}

	return redis.NewClient(opts)
}
