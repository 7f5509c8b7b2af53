package cache

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"pivotgrid/app/interfaces"
)

// Cache provides LRU caching for computed pivot structures, keyed by
// configuration fingerprint. Entries are bounded by an estimated byte
// budget and expire after a TTL.
type Cache struct {
	storage     map[string]*Entry
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	order       *evictList
	mutex       sync.RWMutex
	logger      Logger

	// Performance counters
	hits    int64
	misses  int64
	expired int64
}

// NewCache creates a new cache
func NewCache(maxSize int64, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		storage: make(map[string]*Entry),
		maxSize: maxSize,
		ttl:     ttl,
		order:   newEvictList(),
		logger:  nil, // No logger by default
	}
}

// NewCacheWithLogger creates a new cache with a logger
func NewCacheWithLogger(maxSize int64, ttl time.Duration, logger Logger) *Cache {
	c := NewCache(maxSize, ttl)
	c.logger = logger
	return c
}

// SetLogger sets the logger for the cache
func (c *Cache) SetLogger(logger Logger) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.logger = logger
}

// Get retrieves a cache entry and marks it as recently used. Expired
// entries are removed on access and count as misses.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.storage[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		if c.logger != nil {
			c.logger.Log("debug", fmt.Sprintf("[CACHE_MISS] Key: %s", key))
		}
		return nil, false
	}

	if time.Since(entry.CreateTime) > c.ttl {
		delete(c.storage, key)
		c.currentSize -= entry.Size
		c.order.remove(key)
		atomic.AddInt64(&c.expired, 1)
		atomic.AddInt64(&c.misses, 1)
		if c.logger != nil {
			c.logger.Log("debug", fmt.Sprintf("[CACHE_EXPIRE] Key: %s, Age: %s, Size: %d bytes",
				key, time.Since(entry.CreateTime).Round(time.Second), entry.Size))
		}
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	if c.logger != nil {
		c.logger.Log("debug", fmt.Sprintf("[CACHE_HIT] Key: %s, Cells: %dx%d, Size: %d bytes",
			key, entry.Structure.RowCount, entry.Structure.ColumnCount, entry.Size))
	}

	// Update access time and move to front of LRU
	entry.AccessTime = time.Now().Unix()
	c.order.touch(key)

	return entry, true
}

// Store adds or updates a cache entry. stateSize is the caller's
// estimate for the opaque state payload; the structure itself is
// measured here.
func (c *Cache) Store(key string, structure *interfaces.PivotStructure, state any, stateSize int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	size := estimateStructureSize(structure) + stateSize

	// PRE-VALIDATION: Reject if entry is larger than entire cache
	if size > c.maxSize {
		log.Printf("[CACHE_REJECT] Entry too large: %d bytes > %d cache limit", size, c.maxSize)
		return
	}

	// Remove existing entry if it exists
	if existing, exists := c.storage[key]; exists {
		c.currentSize -= existing.Size
		c.order.remove(key)
	}

	// Ensure we have space
	if !c.evictToMakeSpace(size) {
		log.Printf("[CACHE_REJECT] Could not make space for entry: %d bytes needed, %d available", size, c.maxSize-c.currentSize)
		return
	}

	entry := &Entry{
		Structure:  structure,
		State:      state,
		StateSize:  stateSize,
		Size:       size,
		AccessTime: time.Now().Unix(),
		CreateTime: time.Now(),
	}

	c.storage[key] = entry
	c.currentSize += size
	c.order.touch(key)

	if c.logger != nil {
		c.logger.Log("debug", fmt.Sprintf("[CACHE_STORE] Key: %s, Cells: %dx%d, Size: %d bytes, Total Cache: %d/%d bytes",
			key, structure.RowCount, structure.ColumnCount, size, c.currentSize, c.maxSize))
	}

	// POST-VALIDATION: Emergency check
	if c.currentSize > c.maxSize {
		log.Printf("[CACHE_EMERGENCY] Cache exceeded limit: %d > %d, emergency eviction", c.currentSize, c.maxSize)
		c.emergencyEvict()
	}
}

// Remove removes a cache entry
func (c *Cache) Remove(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, exists := c.storage[key]; exists {
		delete(c.storage, key)
		c.currentSize -= entry.Size
		c.order.remove(key)
	}
}

// Clear removes all cache entries
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.storage = make(map[string]*Entry)
	c.currentSize = 0
	c.order = newEvictList()
}

// Size returns the current cache size in bytes
func (c *Cache) Size() int64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.currentSize
}

// MaxSize returns the maximum cache size
func (c *Cache) MaxSize() int64 {
	return c.maxSize
}

// TTL returns the entry lifetime
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// EntryCount returns the number of cached entries
func (c *Cache) EntryCount() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.storage)
}

// UpdateMaxSize updates the maximum cache size and triggers eviction if necessary
func (c *Cache) UpdateMaxSize(newMaxSize int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if newMaxSize <= 0 {
		newMaxSize = DefaultCacheMaxSize
	}

	oldMaxSize := c.maxSize
	c.maxSize = newMaxSize

	if c.logger != nil {
		c.logger.Log("info", fmt.Sprintf("[CACHE_RESIZE] Cache size updated from %d to %d bytes", oldMaxSize, newMaxSize))
	}

	evictedCount := 0
	for c.currentSize > c.maxSize && c.order.len() > 0 {
		oldestKey, ok := c.order.removeOldest()
		if !ok {
			break
		}
		if entry, exists := c.storage[oldestKey]; exists {
			delete(c.storage, oldestKey)
			c.currentSize -= entry.Size
			evictedCount++
		}
	}

	if evictedCount > 0 && c.logger != nil {
		c.logger.Log("info", fmt.Sprintf("[CACHE_RESIZE_EVICT] Evicted %d entries due to cache size reduction, Final Cache: %d/%d bytes",
			evictedCount, c.currentSize, c.maxSize))
	}
}

// InvalidateExpired removes entries past the TTL without waiting for
// access, and returns how many were dropped.
func (c *Cache) InvalidateExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cutoff := time.Now().Add(-c.ttl)
	var keysToRemove []string

	for key, entry := range c.storage {
		if entry.CreateTime.Before(cutoff) {
			keysToRemove = append(keysToRemove, key)
		}
	}

	for _, key := range keysToRemove {
		if entry, exists := c.storage[key]; exists {
			delete(c.storage, key)
			c.currentSize -= entry.Size
			c.order.remove(key)
			atomic.AddInt64(&c.expired, 1)
		}
	}

	return len(keysToRemove)
}

// GetCacheStats returns detailed cache statistics
func (c *Cache) GetCacheStats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := CacheStats{
		TotalEntries: len(c.storage),
		TotalSize:    c.currentSize,
		MaxSize:      c.maxSize,
		UsagePercent: float64(c.currentSize) / float64(c.maxSize) * 100,
		Hits:         atomic.LoadInt64(&c.hits),
		Misses:       atomic.LoadInt64(&c.misses),
		Expired:      atomic.LoadInt64(&c.expired),
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats
}

// evictToMakeSpace removes entries until there's enough space
func (c *Cache) evictToMakeSpace(neededSize int64) bool {
	if neededSize > c.maxSize {
		return false
	}

	for c.currentSize+neededSize > c.maxSize {
		oldestKey, ok := c.order.removeOldest()
		if !ok {
			// No more entries to evict
			return c.currentSize+neededSize <= c.maxSize
		}

		if entry, exists := c.storage[oldestKey]; exists {
			delete(c.storage, oldestKey)
			c.currentSize -= entry.Size
			if c.logger != nil {
				c.logger.Log("debug", fmt.Sprintf("[CACHE_EVICT] Evicted entry: %s, Size: %d bytes, Remaining Cache: %d/%d bytes",
					oldestKey, entry.Size, c.currentSize, c.maxSize))
			} else {
				log.Printf("[CACHE_EVICT] Evicted entry: %s (%d bytes)", oldestKey, entry.Size)
			}
		}
	}

	return true
}

// emergencyEvict performs emergency eviction when cache exceeds limits
func (c *Cache) emergencyEvict() {
	for c.currentSize > c.maxSize && c.order.len() > 0 {
		oldestKey, ok := c.order.removeOldest()
		if !ok {
			return
		}
		if entry, exists := c.storage[oldestKey]; exists {
			delete(c.storage, oldestKey)
			c.currentSize -= entry.Size
			if c.logger != nil {
				c.logger.Log("warning", fmt.Sprintf("[CACHE_EMERGENCY_EVICT] Emergency evicted: %s, Size: %d bytes, Remaining Cache: %d/%d bytes",
					oldestKey, entry.Size, c.currentSize, c.maxSize))
			} else {
				log.Printf("[CACHE_EMERGENCY_EVICT] Emergency evicted: %s (%d bytes)", oldestKey, entry.Size)
			}
		}
	}
}

// estimateStructureSize estimates the memory held by a pivot structure.
// String content dominates; fixed per-element overheads cover struct
// headers and interface values.
func estimateStructureSize(s *interfaces.PivotStructure) int64 {
	if s == nil {
		return 0
	}

	size := int64(0)

	for _, level := range s.RowHeaders {
		size += headerSliceSize(level)
	}
	for _, level := range s.ColumnHeaders {
		size += headerSliceSize(level)
	}

	for _, row := range s.Matrix {
		for _, cell := range row {
			size += int64(len(cell.FormattedValue))
			for _, p := range cell.Path {
				size += int64(len(p))
			}
			size += 64 // Cell struct plus boxed value
		}
		size += 24 // Slice header
	}

	// Entry struct, summary, counters
	size += 300

	return size
}

func headerSliceSize(headers []interfaces.Header) int64 {
	size := int64(24)
	for _, h := range headers {
		size += int64(len(h.Label))
		for _, p := range h.Path {
			size += int64(len(p))
		}
		size += 80 // Header struct overhead
	}
	return size
}
