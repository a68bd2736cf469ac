package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/address-resolver/app/models"
)

// CacheStats summarises cache effectiveness
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService is implemented by every resolve result cache
type ICacheService interface {
	// Get returns the entry stored under key
	Get(ctx context.Context, key string) (*models.CacheEntry, bool, error)

	// Set stores entry under key
	Set(ctx context.Context, key string, entry *models.CacheEntry) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	// InvalidateByMasterVersion drops every entry produced by a master
	// other than version
	InvalidateByMasterVersion(ctx context.Context, version string) error

	GetStats(ctx context.Context) (*CacheStats, error)

	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of key, 0 when unknown
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	Close() error
}

// CacheKey builds the cache key of an input under a master version. The
// version is kept in clear so stale entries can be found by prefix.
func CacheKey(version string, in models.RawGeoInput) string {
	h := sha256.New()
	h.Write([]byte(strings.Join([]string{
		in.Subdistrict, in.District, in.Province, in.PostalCode, in.FreeText,
	}, "\x1f")))
	return version + ":" + hex.EncodeToString(h.Sum(nil))
}

// versionOfKey returns the master version a key was built for
func versionOfKey(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return ""
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
