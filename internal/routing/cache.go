package routing

import (
	"crypto/md5"
	"fmt"
	"log"
	"sync"
	"time"
)

// RouteCache keeps recently computed routes so rapid selection changes
// don't hammer the routing API.
type RouteCache struct {
	cache      map[string]*cacheEntry
	mutex      sync.RWMutex
	maxEntries int
	ttl        time.Duration
}

type cacheEntry struct {
	result       *RouteResult
	createdAt    time.Time
	lastAccessed time.Time
}

// NewRouteCache creates a route cache with a short TTL; hazards move,
// so stale routes are only useful for seconds, not hours.
func NewRouteCache() *RouteCache {
	return &RouteCache{
		cache:      make(map[string]*cacheEntry),
		maxEntries: 100,
		ttl:        30 * time.Second,
	}
}

// GenerateSignature creates a cache key from the full routing request.
// Two requests route identically only if origin, destination, via and
// avoid areas all match.
func (c *RouteCache) GenerateSignature(req RouteRequest) string {
	signature := fmt.Sprintf("%.6f,%.6f_%.6f,%.6f", req.Origin.Lat, req.Origin.Lng, req.Destination.Lat, req.Destination.Lng)
	if req.Via != nil {
		signature += fmt.Sprintf("_via%.6f,%.6f", req.Via.Lat, req.Via.Lng)
	}
	for _, a := range req.AvoidAreas {
		signature += fmt.Sprintf("_a%.6f,%.6f,%.6f,%.6f", a.West, a.North, a.East, a.South)
	}
	hash := md5.Sum([]byte(signature))
	return fmt.Sprintf("%x", hash[:8])
}

// Get returns a cached route if present and fresh.
func (c *RouteCache) Get(signature string) (*RouteResult, bool) {
	c.mutex.RLock()
	entry, found := c.cache[signature]
	c.mutex.RUnlock()

	if !found {
		return nil, false
	}
	if time.Since(entry.createdAt) > c.ttl {
		c.mutex.Lock()
		delete(c.cache, signature)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.lastAccessed = time.Now()
	c.mutex.Unlock()
	return entry.result, true
}

// Set stores a computed route.
func (c *RouteCache) Set(signature string, result *RouteResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.cache) >= c.maxEntries {
		c.evictOldest()
	}
	c.cache[signature] = &cacheEntry{
		result:       result,
		createdAt:    time.Now(),
		lastAccessed: time.Now(),
	}
}

func (c *RouteCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.cache {
		if oldestKey == "" || entry.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessed
		}
	}
	if oldestKey != "" {
		delete(c.cache, oldestKey)
		log.Printf("🗑️  Evicted route cache entry: %s", oldestKey)
	}
}
