package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](0)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache should miss")
	}
	c.Set("a", 1, 10)
	c.Set("a", 2, 20)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("Get(a) = %d, %v; want 2, true", v, ok)
	}
	s := c.Stats()
	if s.Len != 1 || s.Used != 20 {
		t.Errorf("Stats = %+v; want Len 1, Used 20", s)
	}
	if s.Hits != 1 || s.Misses != 1 || s.HitRate() != 0.5 {
		t.Errorf("Stats = %+v; want one hit, one miss", s)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](30)
	c.Set("a", 1, 10)
	c.Set("b", 2, 10)
	c.Set("c", 3, 10)
	c.Get("a") // b becomes the oldest
	c.Set("d", 4, 10)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if s := c.Stats(); s.Used != 30 || s.Evictions != 1 {
		t.Errorf("Stats = %+v; want Used 30, Evictions 1", s)
	}
}

func TestCacheKeepsOversizedNewest(t *testing.T) {
	c := New[string, int](10)
	c.Set("small", 1, 5)
	c.Set("huge", 2, 100)
	if c.Len() != 1 {
		t.Fatalf("Len = %d; want 1", c.Len())
	}
	if _, ok := c.Get("huge"); !ok {
		t.Error("the newest entry must survive eviction")
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[int, string](0)
	calls := 0
	create := func() (string, int64) {
		calls++
		return "v", 1
	}
	for range 3 {
		if v := c.GetOrCreate(7, create); v != "v" {
			t.Fatalf("GetOrCreate = %q", v)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times; want 1", calls)
	}
}

func TestCacheDeleteClear(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1, 4)
	c.Set("b", 2, 4)
	if !c.Delete("a") || c.Delete("a") {
		t.Error("Delete should report presence exactly once")
	}
	if s := c.Stats(); s.Used != 4 {
		t.Errorf("Used = %d; want 4", s.Used)
	}
	c.Clear()
	if c.Len() != 0 || c.Stats().Used != 0 {
		t.Error("Clear should empty the cache")
	}
	c.Set("c", 3, 1)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache unusable after Clear")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[string, int](50)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := strconv.Itoa((g + i) % 20)
				c.GetOrCreate(k, func() (int, int64) { return i, 5 })
				if i%7 == 0 {
					c.Delete(k)
				}
			}
		}()
	}
	wg.Wait()
	if s := c.Stats(); s.Used > 50 || s.Used < 0 {
		t.Errorf("Used = %d; want within [0, 50]", s.Used)
	}
}

func BenchmarkCacheGetOrCreate(b *testing.B) {
	c := New[string, int](64)
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCreate(keys[i%len(keys)], func() (int, int64) { return i, 1 })
	}
}
