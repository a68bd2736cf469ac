package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
)

var (
	ErrCacheDisabled  = errors.New("cache is not configured")
	ErrSearchDisabled = errors.New("search index is not configured")
	ErrReviewDisabled = errors.New("review queue is not configured")
)

// Indexer seeds and configures the gazetteer search index
type Indexer interface {
	BuildIndexes() error
	SeedRecords(records []models.GeoRecord, version string) error
}

// SystemStats is the admin view of the running service
type SystemStats struct {
	Service        ServiceStats           `json:"service"`
	Cache          *CacheStats            `json:"cache,omitempty"`
	PendingReviews int64                  `json:"pending_reviews"`
	MemoryUsage    map[string]interface{} `json:"memory_usage"`
	Goroutines     int                    `json:"goroutines"`
}

// ReindexResult reports a search index rebuild
type ReindexResult struct {
	MasterVersion    string `json:"master_version"`
	Records          int    `json:"records"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// AdminService exposes maintenance operations
type AdminService struct {
	addresses *AddressService
	cache     ICacheService
	reviews   *ReviewService
	indexer   Indexer
	logger    *zap.Logger
}

// NewAdminService creates an AdminService. cache, reviews and indexer may be nil.
func NewAdminService(addresses *AddressService, cache ICacheService, reviews *ReviewService, indexer Indexer, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		addresses: addresses,
		cache:     cache,
		reviews:   reviews,
		indexer:   indexer,
		logger:    logger,
	}
}

// Reviews returns the review service, nil when not configured
func (as *AdminService) Reviews() *ReviewService {
	return as.reviews
}

// GetSystemStats collects service, cache, review and runtime figures
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Service: as.addresses.Stats(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("cache stats: %w", err)
		}
		stats.Cache = cacheStats
	}

	if as.reviews != nil {
		pending, err := as.reviews.PendingCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("review stats: %w", err)
		}
		stats.PendingReviews = pending
	}

	return stats, nil
}

// InvalidateCache drops stale entries, or everything when all is set
func (as *AdminService) InvalidateCache(ctx context.Context, all bool) error {
	if as.cache == nil {
		return ErrCacheDisabled
	}
	if all {
		return as.cache.Clear(ctx)
	}
	return as.cache.InvalidateByMasterVersion(ctx, as.addresses.Master().Version())
}

// Reindex reseeds the search index from the current master
func (as *AdminService) Reindex(ctx context.Context) (*ReindexResult, error) {
	if as.indexer == nil {
		return nil, ErrSearchDisabled
	}

	start := time.Now()
	master := as.addresses.Master()

	if err := as.indexer.BuildIndexes(); err != nil {
		return nil, fmt.Errorf("build indexes: %w", err)
	}
	if err := as.indexer.SeedRecords(master.Records(), master.Version()); err != nil {
		return nil, fmt.Errorf("seed records: %w", err)
	}

	res := &ReindexResult{
		MasterVersion:    master.Version(),
		Records:          master.Len(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	as.logger.Info("Search index rebuilt",
		zap.String("master_version", res.MasterVersion),
		zap.Int("records", res.Records))
	return res, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
