package models

import "time"

// CacheEntry is a cached resolution tagged with the master version that produced it
type CacheEntry struct {
	Result        ResolveResult `json:"result"`
	MasterVersion string        `json:"master_version"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewCacheEntry wraps a result for caching
func NewCacheEntry(result ResolveResult) *CacheEntry {
	return &CacheEntry{
		Result:        result,
		MasterVersion: result.MasterVersion,
		CreatedAt:     time.Now(),
	}
}

// IsExpired reports whether the entry is older than ttl
func (ce *CacheEntry) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(ce.CreatedAt) > ttl
}
