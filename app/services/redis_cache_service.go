package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

const redisScanCount = 500

// RedisCacheService caches resolve results in Redis
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService connects to redisURL and verifies the connection
func NewRedisCacheService(redisURL, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return newRedisCacheService(client, prefix, ttl, logger), nil
}

func newRedisCacheService(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "addr:"
	}
	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get returns a cached entry
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	cacheKey := rcs.prefix + key

	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Redis get failed", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		rcs.logger.Error("Cache entry unmarshal failed", zap.Error(err))
		return nil, false, err
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &entry, true, nil
}

// Set stores an entry with the service TTL
func (rcs *RedisCacheService) Set(ctx context.Context, key string, entry *models.CacheEntry) error {
	cacheKey := rcs.prefix + key

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Redis set failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}

	return nil
}

// Delete removes an entry
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	cacheKey := rcs.prefix + key

	if err := rcs.client.Del(ctx, cacheKey).Err(); err != nil {
		rcs.logger.Error("Redis delete failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}
	return nil
}

// Clear removes every key under the prefix
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted, err := rcs.deleteMatching(ctx, func(string) bool { return true })
	if err != nil {
		return fmt.Errorf("clear redis cache: %w", err)
	}

	rcs.hits.Store(0)
	rcs.misses.Store(0)
	rcs.logger.Info("Cleared Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

// InvalidateByMasterVersion deletes keys built for another master version
func (rcs *RedisCacheService) InvalidateByMasterVersion(ctx context.Context, version string) error {
	deleted, err := rcs.deleteMatching(ctx, func(key string) bool {
		return versionOfKey(key) != version
	})
	if err != nil {
		return fmt.Errorf("invalidate redis cache: %w", err)
	}

	rcs.logger.Info("Invalidated Redis cache",
		zap.String("master_version", version),
		zap.Int("keys_deleted", deleted))
	return nil
}

// deleteMatching scans the prefix and deletes keys accepted by match.
// match receives the key without the prefix.
func (rcs *RedisCacheService) deleteMatching(ctx context.Context, match func(string) bool) (int, error) {
	var batch []string
	deleted := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := rcs.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		if !match(full[len(rcs.prefix):]) {
			continue
		}
		batch = append(batch, full)
		if len(batch) >= redisScanCount {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	return deleted, flush()
}

// GetStats returns hit/miss counters and the number of keys under the prefix
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var total int64
	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		total++
	}
	if err := iter.Err(); err != nil {
		rcs.logger.Warn("Redis key count failed", zap.Error(err))
	}

	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: total,
	}, nil
}

// Exists reports whether key is cached
func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rcs.client.Exists(ctx, rcs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTTL returns the remaining lifetime of key
func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rcs.client.TTL(ctx, rcs.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Close closes the Redis connection
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}
