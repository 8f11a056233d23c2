// Package cache holds small in-memory read-through caches. Templates
// change rarely but are read on every submission, so a minutes-scale
// TTL keeps the store quiet without risking stale evaluation: every
// successful template save invalidates its entry.
package cache

import (
	"sync"
	"time"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// TemplateCache provides in-memory caching for current template records.
// Cached values are shared pointers; callers treat them as read-only.
type TemplateCache struct {
	mu    sync.RWMutex
	cache map[string]*templateEntry
	ttl   time.Duration
}

type templateEntry struct {
	template  *models.QuestionnaireTemplate
	expiresAt time.Time
}

// NewTemplateCache creates a template cache with the given TTL.
func NewTemplateCache(ttl time.Duration) *TemplateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TemplateCache{
		cache: make(map[string]*templateEntry),
		ttl:   ttl,
	}
}

// Get retrieves a template from cache.
func (c *TemplateCache) Get(id string) (*models.QuestionnaireTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[id]
	if !exists {
		return nil, false
	}

	// Expired entries are ignored here and pruned by Cleanup.
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.template, true
}

// Set stores a template in cache.
func (c *TemplateCache) Set(id string, template *models.QuestionnaireTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[id] = &templateEntry{
		template:  template,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops one template's entry. Called after every successful
// template save so readers never see a superseded version for longer
// than one request.
func (c *TemplateCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, id)
}

// Cleanup removes expired entries.
func (c *TemplateCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, entry := range c.cache {
		if now.After(entry.expiresAt) {
			delete(c.cache, id)
		}
	}
}

// StartCleanup starts a background goroutine that periodically cleans up
// expired entries.
func (c *TemplateCache) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			c.Cleanup()
		}
	}()
}
