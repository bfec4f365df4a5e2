// Package cache provides the Redis client used for server-side sessions and
// for caching the subscriber list. It runs an embedded Redis (miniredis)
// unless an external address is configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spu-nas/nasweb/logger"
)

// ErrNotInitialized is returned by the helpers before InitRedis has run.
var ErrNotInitialized = errors.New("redis client not initialized")

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

var (
	client     *redis.Client
	miniRedis  *miniredis.Miniredis
	ctx        = context.Background()
	isEmbedded = true
)

// InitRedis initializes the Redis client. If redisAddr is empty, starts embedded Redis.
func InitRedis(redisAddr string) error {
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		miniRedis = mr
		client = redis.NewClient(&redis.Options{
			Addr: mr.Addr(),
		})
		isEmbedded = true
		logger.Info("Embedded Redis started on ", mr.Addr())
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})
	isEmbedded = false

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", redisAddr, err)
	}
	logger.Info("Connected to external Redis at ", redisAddr)
	return nil
}

func GetClient() *redis.Client {
	return client
}

func IsEmbedded() bool {
	return isEmbedded
}

// Close closes the Redis connection and stops embedded Redis if running.
func Close() error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
	}
	return err
}

// Get retrieves a value from Redis.
func Get(key string) (string, error) {
	if client == nil {
		return "", ErrNotInitialized
	}
	result, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return result, err
}

// Delete removes keys from Redis.
func Delete(keys ...string) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Del(ctx, keys...).Err()
}
