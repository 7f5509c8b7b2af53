package cache

import (
	"time"

	"pivotgrid/app/interfaces"
)

// Logger interface for cache logging
type Logger = interfaces.Logger

const (
	// DefaultCacheMaxSize is the default cache size limit (100MB)
	DefaultCacheMaxSize = int64(100 * 1024 * 1024)

	// DefaultTTL is how long an entry stays valid after creation
	DefaultTTL = 30 * time.Minute
)

// Entry is a cached computation result. Structure is the renderable
// output; State is the engine's opaque accumulator state, kept so a
// cache hit can still serve incremental updates. StateSize is the
// caller's estimate of how much memory State holds, since the cache
// cannot inspect it.
type Entry struct {
	Structure  *interfaces.PivotStructure
	State      any
	StateSize  int64
	Size       int64
	AccessTime int64
	CreateTime time.Time
}

// CacheStats provides detailed cache statistics
type CacheStats struct {
	TotalEntries int     `json:"totalEntries"`
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Expired      int64   `json:"expired"`
	HitRate      float64 `json:"hitRate"`
}
