package parser

import (
	"sync"
	"time"
)

// Cooldowns tracks providers that asked to be left alone via Retry-After.
// Keys are opaque; the orchestrator uses the provider config ID.
type Cooldowns struct {
	mu      sync.RWMutex
	resetAt map[string]time.Time
}

// NewCooldowns creates an empty tracker.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{resetAt: make(map[string]time.Time)}
}

// Until reports when key's cooldown ends and whether it is still active at now.
func (c *Cooldowns) Until(key string, now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.resetAt[key]
	return at, ok && now.Before(at)
}

// Open starts or extends key's cooldown. An earlier reset time never shortens
// an active one.
func (c *Cooldowns) Open(key string, resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.resetAt[key]; ok && cur.After(resetAt) {
		return
	}
	c.resetAt[key] = resetAt
}
