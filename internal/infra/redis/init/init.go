package infra_redis_init

import (
	"fmt"

	"github.com/go-redis/redis"
	"github.com/KentaroHashi12/Futarigohan/internal/config"
)

func EstablishConn(cfg config.RedisCache) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})

	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
