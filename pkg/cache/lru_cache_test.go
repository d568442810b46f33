package cache

import (
	"testing"
	"time"
)

func TestLRUCache_Basic(t *testing.T) {
	cache := NewLRUCache(3, time.Hour)

	cache.Set("a", "one")
	cache.Set("b", "two")
	cache.Set("c", "three")

	if val, ok := cache.Get("a"); !ok || val != "one" {
		t.Errorf("expected %q, got %q", "one", val)
	}

	// Add one more, should evict "b" (least recently used)
	cache.Set("d", "four")

	if _, ok := cache.Get("b"); ok {
		t.Error("expected 'b' to be evicted")
	}

	if cache.Len() != 3 {
		t.Errorf("expected cache length 3, got %d", cache.Len())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	cache := NewLRUCache(10, 10*time.Millisecond)

	cache.Set("key", "value")
	if _, ok := cache.Get("key"); !ok {
		t.Fatal("expected key to be present before TTL expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("key"); ok {
		t.Error("expected key to expire after TTL")
	}
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	cache := NewLRUCache(2, time.Hour)

	cache.Set("k", "first")
	cache.Set("k", "second")

	if val, _ := cache.Get("k"); val != "second" {
		t.Errorf("expected updated value, got %q", val)
	}
	if cache.Len() != 1 {
		t.Errorf("expected length 1, got %d", cache.Len())
	}
}

func TestLRUCache_DumpRestore(t *testing.T) {
	cache := NewLRUCache(5, time.Hour)
	cache.Set(HashKey("prompt-a"), "summary-a")
	cache.Set(HashKey("prompt-b"), "summary-b")

	dump := cache.Dump()
	if len(dump) != 2 {
		t.Fatalf("expected 2 dumped entries, got %d", len(dump))
	}

	restored := NewLRUCache(5, time.Hour)
	restored.Restore(dump)

	if val, ok := restored.Get(HashKey("prompt-a")); !ok || val != "summary-a" {
		t.Errorf("expected restored value %q, got %q", "summary-a", val)
	}
}

func TestLRUCache_RestoreDropsExpired(t *testing.T) {
	dump := map[string]Entry{
		"live": {Text: "keep", ExpiresAt: time.Now().Add(time.Hour)},
		"dead": {Text: "drop", ExpiresAt: time.Now().Add(-time.Hour)},
	}

	cache := NewLRUCache(5, time.Hour)
	cache.Restore(dump)

	if cache.Len() != 1 {
		t.Fatalf("expected 1 live entry after restore, got %d", cache.Len())
	}
	if _, ok := cache.Get("dead"); ok {
		t.Error("expected expired entry to be dropped on restore")
	}
}
