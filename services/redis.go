package services

import (
	"context"
	"fmt"

	"photosocial/config"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

// InitRedis connects the shared client. A config without a redis host
// leaves RedisClient nil and the redis-backed features disabled.
func InitRedis(conf *config.ConfigSchema) error {
	if conf == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}
	if conf.Redis.Host == "" {
		return nil
	}

	port := conf.Redis.Port
	if port == 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Redis.Host, port),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	RedisClient = client
	return nil
}

func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
