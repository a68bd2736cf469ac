package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

// HybridCacheService layers a fast local cache (L1) over a shared one (L2)
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService creates a two-level cache, typically memory over Redis
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridCacheService{
		l1:     l1,
		l2:     l2,
		logger: logger,
	}
}

// Get checks L1, then L2, and backfills L1 on an L2 hit
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	entry, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache failed, trying L2", zap.Error(err))
	} else if found {
		return entry, true, nil
	}

	entry, found, err = hcs.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.l1.Set(bgCtx, key, entry); err != nil {
			hcs.logger.Warn("L1 backfill failed", zap.Error(err), zap.String("key", key))
		}
	}()

	hcs.logger.Debug("L2 cache hit", zap.String("key", key))
	return entry, true, nil
}

// Set writes both levels in parallel
func (hcs *HybridCacheService) Set(ctx context.Context, key string, entry *models.CacheEntry) error {
	return hcs.both("set", func(c ICacheService) error { return c.Set(ctx, key, entry) })
}

// Delete removes key from both levels
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both("delete", func(c ICacheService) error { return c.Delete(ctx, key) })
}

// Clear empties both levels
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both("clear", func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// InvalidateByMasterVersion invalidates both levels
func (hcs *HybridCacheService) InvalidateByMasterVersion(ctx context.Context, version string) error {
	return hcs.both("invalidate", func(c ICacheService) error {
		return c.InvalidateByMasterVersion(ctx, version)
	})
}

// GetStats combines the counters of both levels. Items are counted from L2,
// which holds a superset of L1.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.GetStats(ctx)
	l2Stats, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, fmt.Errorf("cache stats: %w", errors.Join(l1Err, l2Err))
	case l1Err != nil:
		return l2Stats, nil
	case l2Err != nil:
		return l1Stats, nil
	}

	// an L1 miss that hits L2 is a hit overall
	hits := l1Stats.TotalHits + l2Stats.TotalHits
	misses := l2Stats.TotalMiss
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: l2Stats.TotalItems,
	}, nil
}

// Exists checks L1 then L2
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.l1.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 exists failed, trying L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

// GetTTL reports the L2 lifetime
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l2.GetTTL(ctx, key)
}

// Close closes both levels
func (hcs *HybridCacheService) Close() error {
	return hcs.both("close", func(c ICacheService) error { return c.Close() })
}

// both runs op on L1 and L2 concurrently and joins their errors
func (hcs *HybridCacheService) both(name string, op func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.l1, hcs.l2} {
		c := c
		go func() {
			errCh <- op(c)
		}()
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			hcs.logger.Warn("Hybrid cache operation failed", zap.String("op", name), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", name, errors.Join(errs...))
	}
	return nil
}
