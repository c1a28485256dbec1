// Package cache provides the Redis-backed cache and distributed-lease
// primitives used by the engine.
package cache

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient creates a configured Redis client.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	log.Printf("Redis client configured for %s:%s", cfg.Host, cfg.Port)
	return client
}
