package compat

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache(4, 0)

	if _, ok := c.Get("linux-1.26"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Put("linux-1.26", NewProfile("linux-1.26"))

	p, ok := c.Get("linux-1.26")
	if !ok || p.PlatformKey != "linux-1.26" {
		t.Fatalf("expected hit, got ok=%v p=%+v", ok, p)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("stats = %+v, want hits=1 misses=1 size=1", stats)
	}
}

func TestCacheBound(t *testing.T) {
	c := NewCache(2, 0)
	c.Put("a", NewProfile("a"))
	c.Put("b", NewProfile("b"))
	c.Put("c", NewProfile("c"))

	if size := c.Stats().Size; size != 2 {
		t.Fatalf("size = %d, want 2", size)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest insertion should have been evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should survive")
	}
}

func TestCacheOverwriteRefreshesAge(t *testing.T) {
	c := NewCache(2, 0)
	c.Put("a", NewProfile("a"))
	c.Put("b", NewProfile("b"))
	c.Put("a", NewProfile("a")) // a becomes the newest insertion
	c.Put("c", NewProfile("c")) // evicts b, not a

	if _, ok := c.Get("a"); !ok {
		t.Error("refreshed key should survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
}

func TestCacheTTL(t *testing.T) {
	c := NewCache(4, time.Minute)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Put("linux-1.26", NewProfile("linux-1.26"))
	if _, ok := c.Get("linux-1.26"); !ok {
		t.Fatal("fresh entry should hit")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok := c.Get("linux-1.26"); ok {
		t.Fatal("expired entry should miss")
	}
	if size := c.Stats().Size; size != 0 {
		t.Errorf("expired entry not removed, size = %d", size)
	}
}

func TestCacheNoTTL(t *testing.T) {
	c := NewCache(4, 0)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Put("k", NewProfile("k"))
	clock = clock.Add(240 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Error("ttl=0 entries must not expire")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(8, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("platform-%d", n%4)
			for j := 0; j < 100; j++ {
				c.Put(key, NewProfile(key))
				if p, ok := c.Get(key); ok && p.PlatformKey != key {
					t.Errorf("got profile %q for key %q", p.PlatformKey, key)
				}
			}
		}(i)
	}
	wg.Wait()

	if size := c.Stats().Size; size > 8 {
		t.Errorf("size %d exceeds bound", size)
	}
}
