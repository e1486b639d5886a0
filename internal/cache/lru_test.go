package cache

import (
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("k2", "v2")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected k to be expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 expired entry cleaned, got %d", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("acc1:2024-03", 1)
	c.Set("acc1:2024-04", 2)
	c.Set("acc2:2024-03", 3)

	if n := c.DeletePrefix("acc1:"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := c.Get("acc2:2024-03"); !ok {
		t.Fatalf("other account's entry must survive")
	}
	c.Delete("acc2:2024-03")
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	now = now.Add(time.Hour)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 entry swept, got %d", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
