package cache

import (
	"context"
	"sync"
	"time"

	"vet1stop-platform/models"
)

// MemoryCountsCache is a process-local CountsCache used when Redis is not configured
type MemoryCountsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	counts  map[models.Category]int64
	expires time.Time
}

func NewMemoryCountsCache(ttl time.Duration) *MemoryCountsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryCountsCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCountsCache) Get(context.Context) (map[models.Category]int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return copyCounts(c.counts), true, nil
}

func (c *MemoryCountsCache) Set(_ context.Context, counts map[models.Category]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = copyCounts(counts)
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryCountsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = nil
	return nil
}

func copyCounts(in map[models.Category]int64) map[models.Category]int64 {
	out := make(map[models.Category]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
