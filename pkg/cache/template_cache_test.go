package cache

import (
	"testing"
	"time"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

func TestTemplateCache_SetAndGet(t *testing.T) {
	c := NewTemplateCache(time.Minute)

	tpl := &models.QuestionnaireTemplate{ID: "gate-0", Version: 3}
	c.Set("gate-0", tpl)

	got, ok := c.Get("gate-0")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Version != 3 {
		t.Errorf("Version = %d, want 3", got.Version)
	}

	if _, ok := c.Get("gate-1"); ok {
		t.Error("expected a miss for an uncached id")
	}
}

func TestTemplateCache_TTLExpiry(t *testing.T) {
	c := NewTemplateCache(10 * time.Millisecond)

	c.Set("gate-0", &models.QuestionnaireTemplate{ID: "gate-0", Version: 1})
	if _, ok := c.Get("gate-0"); !ok {
		t.Fatal("expected a hit before the TTL elapses")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("gate-0"); ok {
		t.Error("expected a miss after the TTL elapses")
	}
}

func TestTemplateCache_Invalidate(t *testing.T) {
	c := NewTemplateCache(time.Minute)

	c.Set("gate-0", &models.QuestionnaireTemplate{ID: "gate-0", Version: 1})
	c.Invalidate("gate-0")

	if _, ok := c.Get("gate-0"); ok {
		t.Error("expected a miss after invalidation")
	}
}

func TestTemplateCache_CleanupPrunesExpired(t *testing.T) {
	c := NewTemplateCache(10 * time.Millisecond)

	c.Set("gate-0", &models.QuestionnaireTemplate{ID: "gate-0", Version: 1})
	time.Sleep(20 * time.Millisecond)
	c.Set("gate-1", &models.QuestionnaireTemplate{ID: "gate-1", Version: 1})

	c.Cleanup()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, exists := c.cache["gate-0"]; exists {
		t.Error("expected the expired entry to be pruned")
	}
	if _, exists := c.cache["gate-1"]; !exists {
		t.Error("expected the live entry to survive cleanup")
	}
}
