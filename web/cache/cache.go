package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/spu-nas/nasweb/logger"
)

const (
	TTLSubscribers = 30 * time.Second
)

const (
	KeySubscribersAll = "nasweb:subscribers:all"
)

// versionKey is bumped by Invalidate. GetOrSet watches it so a value loaded
// before a concurrent invalidation is never stored.
func versionKey(key string) string {
	return key + ":version"
}

// GetJSON retrieves a value from cache and unmarshals it as JSON.
func GetJSON(key string, dest any) error {
	val, err := Get(key)
	if err != nil {
		return err
	}
	if val == "" {
		return fmt.Errorf("empty value for key: %s", key)
	}
	return json.Unmarshal([]byte(val), dest)
}

// GetOrSet fills dest from cache, or from fn on a miss. The loaded value is
// stored only if key was not invalidated while fn ran. Without a Redis
// client it always calls fn.
func GetOrSet(key string, dest any, expiration time.Duration, fn func() (any, error)) error {
	err := GetJSON(key, dest)
	if err == nil {
		logger.Debugf("Cache hit for key: %s", key)
		return nil
	}
	if !errors.Is(err, ErrKeyNotFound) && !errors.Is(err, ErrNotInitialized) {
		logger.Warningf("Cache read for key %s failed: %v", key, err)
	}

	var (
		value   any
		loaded  bool
		loadErr error
	)
	if client != nil {
		err = client.Watch(ctx, func(tx *redis.Tx) error {
			value, loadErr = fn()
			loaded = true
			if loadErr != nil {
				return nil
			}
			data, err := json.Marshal(value)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, expiration)
				return nil
			})
			return err
		}, versionKey(key))
		if loadErr != nil {
			return loadErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			logger.Debugf("Cache key %s invalidated while loading, not stored", key)
		} else if err != nil {
			logger.Warningf("Failed to set cache for key %s: %v", key, err)
		}
	}
	if !loaded {
		if value, err = fn(); err != nil {
			return err
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Invalidate drops the cached value of key and fails any GetOrSet that is
// loading it.
func Invalidate(key string) error {
	if client == nil {
		return nil
	}
	if err := client.Incr(ctx, versionKey(key)).Err(); err != nil {
		return err
	}
	return Delete(key)
}

// InvalidateSubscribers drops the cached subscriber list.
func InvalidateSubscribers() error {
	return Invalidate(KeySubscribersAll)
}
