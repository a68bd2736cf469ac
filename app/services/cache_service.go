package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

// CacheService is an in-memory LRU cache with per-entry expiry
type CacheService struct {
	cache  *expirable.LRU[string, *models.CacheEntry]
	ttl    time.Duration
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a CacheService holding at most size entries for ttl
func NewCacheService(size int, ttl time.Duration, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		cache:  expirable.NewLRU[string, *models.CacheEntry](size, nil, ttl),
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns a cached entry
func (cs *CacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	entry, ok := cs.cache.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return entry, true, nil
}

// Set stores an entry
func (cs *CacheService) Set(ctx context.Context, key string, entry *models.CacheEntry) error {
	cs.cache.Add(key, entry)
	return nil
}

// Delete removes an entry
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.cache.Remove(key)
	return nil
}

// Clear removes every entry and resets the counters
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.cache.Purge()
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

// InvalidateByMasterVersion drops entries built for another master version
func (cs *CacheService) InvalidateByMasterVersion(ctx context.Context, version string) error {
	removed := 0
	for _, key := range cs.cache.Keys() {
		if versionOfKey(key) != version {
			cs.cache.Remove(key)
			removed++
		}
	}

	cs.logger.Info("Invalidated memory cache",
		zap.String("master_version", version),
		zap.Int("removed", removed))

	return nil
}

// GetStats returns hit/miss counters and the live entry count
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.cache.Len()),
	}, nil
}

// Size returns the number of live entries
func (cs *CacheService) Size() int {
	return cs.cache.Len()
}

// Exists reports whether key is cached, without touching recency
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := cs.cache.Peek(key)
	return ok, nil
}

// GetTTL returns the remaining lifetime of key
func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	entry, ok := cs.cache.Peek(key)
	if !ok || cs.ttl <= 0 {
		return 0, nil
	}

	remaining := cs.ttl - time.Since(entry.CreatedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close is a no-op for the in-memory cache
func (cs *CacheService) Close() error {
	return nil
}
