package services

import (
	"context"
	"sync"
	"time"

	"youth-sports-gamification/models"
)

type cooldownKey struct {
	userID string
	action models.ActionType
}

type cooldownEntry struct {
	at        time.Time
	expiresAt time.Time
}

// MemoryCooldownCache is the single-instance CooldownCache.
type MemoryCooldownCache struct {
	mu      sync.RWMutex
	entries map[cooldownKey]cooldownEntry
}

func NewMemoryCooldownCache() *MemoryCooldownCache {
	return &MemoryCooldownCache{entries: make(map[cooldownKey]cooldownEntry)}
}

func (c *MemoryCooldownCache) LastAwarded(_ context.Context, userID string, action models.ActionType) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cooldownKey{userID, action}]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

func (c *MemoryCooldownCache) MarkAwarded(_ context.Context, userID string, action models.ActionType, at time.Time, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cooldownKey{userID, action}] = cooldownEntry{at: at, expiresAt: at.Add(ttl)}
}

// Prune drops entries whose cooldown has elapsed and returns how many went.
func (c *MemoryCooldownCache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *MemoryCooldownCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
