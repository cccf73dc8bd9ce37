package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// InitRedis connects to Redis when REDIS_ADDR is set. A nil client means the
// service runs in single-instance mode.
func InitRedis(s *Settings) (*redis.Client, error) {
	if s.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set, live notifications stay process-local")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
		PoolSize: 100,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logrus.Infof("Redis connection established addr=%s", s.RedisAddr)
	return client, nil
}
