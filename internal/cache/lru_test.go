package cache

import "testing"

func TestCacheGetPut(t *testing.T) {
	c := New[uint32, string](2)
	c.Put(0x1000, "root")
	c.Put(0x2000, "software")

	if v, ok := c.Get(0x1000); !ok || v != "root" {
		t.Fatalf("expected hit for 0x1000, got %q %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestCacheEvictsLRU(t *testing.T) {
	c := New[uint32, string](2)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Get(1) // touch 1, making 2 the LRU
	c.Put(3, "c")

	if _, ok := c.Get(2); ok {
		t.Fatalf("expected 2 to be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected 1 to survive eviction")
	}
	if _, ok := c.Get(3); !ok {
		t.Fatalf("expected 3 to be present")
	}
}

func TestCacheZeroCapacityDisabled(t *testing.T) {
	c := New[uint32, string](0)
	c.Put(1, "a")
	if _, ok := c.Get(1); ok {
		t.Fatalf("zero-capacity cache must never hit")
	}
	if c.Len() != 0 {
		t.Fatalf("expected zero length, got %d", c.Len())
	}
}

func TestCacheReset(t *testing.T) {
	c := New[uint32, string](4)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after reset, got %d", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected miss after reset")
	}
}
