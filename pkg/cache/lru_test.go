// ABOUTME: Tests for the LRU cache
// ABOUTME: Tests eviction order, the byte budget and statistics
package cache

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestLRU(maxBytes int64) (*LRU[string], *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	return NewLRUWithClock[string](maxBytes, clock.now), clock
}

func TestLRUGetMiss(t *testing.T) {
	c, _ := newTestLRU(100)
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, clock := newTestLRU(100)

	c.Set("a", "A", 40)
	clock.advance(time.Second)
	c.Set("b", "B", 40)
	clock.advance(time.Second)

	// Touch a so b becomes the oldest
	if v, ok := c.Get("a"); !ok || v != "A" {
		t.Fatalf("expected hit for a, got %q %v", v, ok)
	}
	clock.advance(time.Second)
	c.Set("c", "C", 40)

	if c.Has("b") {
		t.Error("expected b to be evicted")
	}
	if !c.Has("a") || !c.Has("c") {
		t.Error("expected a and c to remain")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", c.Stats().Evictions)
	}
}

func TestLRUTiesEvictInAccessOrder(t *testing.T) {
	c, _ := newTestLRU(100)

	c.Set("a", "A", 40)
	c.Set("b", "B", 40)
	c.Set("c", "C", 40)

	if c.Has("a") {
		t.Error("expected a to be evicted first when timestamps tie")
	}
	if !c.Has("b") || !c.Has("c") {
		t.Error("expected b and c to remain")
	}
}

func TestLRUEvictsUntilFits(t *testing.T) {
	c, clock := newTestLRU(100)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v", 25)
		clock.advance(time.Millisecond)
	}
	c.Set("big", "v", 70)

	stats := c.Stats()
	if stats.ItemCount != 2 {
		t.Errorf("expected 2 items, got %d", stats.ItemCount)
	}
	if stats.Size != 95 {
		t.Errorf("expected size 95, got %d", stats.Size)
	}
	if !c.Has("k3") {
		t.Error("expected newest small entry to survive")
	}
}

func TestLRURejectsOversizedEntry(t *testing.T) {
	c, _ := newTestLRU(100)
	c.Set("small", "v", 10)

	if c.Set("huge", "v", 101) {
		t.Error("expected oversized entry to be rejected")
	}
	if c.Has("huge") {
		t.Error("expected oversized entry not to be stored")
	}
	if !c.Has("small") {
		t.Error("expected existing entries to be untouched")
	}
}

func TestLRUReplaceUpdatesSize(t *testing.T) {
	c, _ := newTestLRU(100)

	c.Set("a", "first", 60)
	c.Set("a", "second", 30)

	stats := c.Stats()
	if stats.Size != 30 || stats.ItemCount != 1 {
		t.Errorf("expected one entry of 30 bytes, got %d entries %d bytes", stats.ItemCount, stats.Size)
	}
	if v, _ := c.Get("a"); v != "second" {
		t.Errorf("expected second, got %q", v)
	}
}

func TestLRUBudgetNeverExceeded(t *testing.T) {
	c, clock := newTestLRU(1000)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("k%d", rng.Intn(40))
		c.Set(key, "v", int64(rng.Intn(400)))
		if rng.Intn(3) == 0 {
			c.Get(fmt.Sprintf("k%d", rng.Intn(40)))
		}
		clock.advance(time.Duration(rng.Intn(3)) * time.Millisecond)

		stats := c.Stats()
		if stats.Size > stats.MaxSize {
			t.Fatalf("step %d: size %d exceeds budget %d", i, stats.Size, stats.MaxSize)
		}
	}
}

func TestLRUDeleteAndClear(t *testing.T) {
	c, _ := newTestLRU(100)
	c.Set("a", "A", 10)
	c.Set("b", "B", 20)

	if !c.Delete("a") {
		t.Error("expected delete of present key to report true")
	}
	if c.Delete("a") {
		t.Error("expected second delete to report false")
	}
	if c.Stats().Size != 20 {
		t.Errorf("expected size 20, got %d", c.Stats().Size)
	}

	c.Clear()
	if c.Stats().Size != 0 || c.Stats().ItemCount != 0 {
		t.Error("expected empty cache after clear")
	}
}

func TestLRUStats(t *testing.T) {
	c, _ := newTestLRU(200)
	c.Set("a", "A", 50)
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d and %d", stats.Hits, stats.Misses)
	}
	if stats.Utilization != 0.25 {
		t.Errorf("expected utilization 0.25, got %v", stats.Utilization)
	}
}

func TestLRUKeysOldestFirst(t *testing.T) {
	c, clock := newTestLRU(100)
	c.Set("a", "A", 1)
	clock.advance(time.Second)
	c.Set("b", "B", 1)
	clock.advance(time.Second)
	c.Get("a")

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("expected [b a], got %v", keys)
	}
}
