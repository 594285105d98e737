package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lms-backend/internal/clients/redis"
	"github.com/yungbote/lms-backend/internal/platform/gcp"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset.
	Redis *goredis.Client
	// Bucket is nil when object storage is disabled.
	Bucket gcp.BucketService
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		c, err := redis.NewClient(log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		rdb = c
	}

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	return Clients{Redis: rdb, Bucket: bucket}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
}
