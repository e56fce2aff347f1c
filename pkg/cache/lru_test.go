package cache

import "testing"

func TestLRUCache_GetOnNeverSetKey(t *testing.T) {
	c := NewLRUCache(3)
	if v, ok := c.Get("missing"); ok || v != nil {
		t.Fatalf("Get on unseen key = (%v, %v), want (nil, false)", v, ok)
	}
}

func TestLRUCache_InitialSizeIsZero(t *testing.T) {
	c := NewLRUCache(3)
	if size := c.Size(); size != 0 {
		t.Fatalf("Size() = %d, want 0", size)
	}
}

func TestLRUCache_SetBasic(t *testing.T) {
	c := NewLRUCache(3)
	c.Set("key1", "value1")
	if size := c.Size(); size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}

	c.Set("key2", "value2")
	if size := c.Size(); size != 2 {
		t.Fatalf("Size() = %d, want 2", size)
	}
}

func TestLRUCache_SetModifyExistingKeyDoesNotGrow(t *testing.T) {
	c := NewLRUCache(3)
	c.Set("key1", "value1")
	c.Set("key1", "value01")

	if size := c.Size(); size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}
	if v, ok := c.Get("key1"); !ok || v != "value01" {
		t.Fatalf("Get(key1) = (%v, %v), want (value01, true)", v, ok)
	}
}

func TestLRUCache_SizeNeverExceedsCapacity(t *testing.T) {
	c := NewLRUCache(2)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	if size := c.Size(); size != 2 {
		t.Fatalf("Size() = %d, want 2", size)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsedOnOverflow(t *testing.T) {
	c := NewLRUCache(2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a", the least recently used

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get(a) after eviction = true, want false")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("Get(b) = (%v, %v), want (2, true)", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("Get(c) = (%v, %v), want (3, true)", v, ok)
	}
	if size := c.Size(); size != 2 {
		t.Fatalf("Size() = %d, want 2", size)
	}
}

func TestLRUCache_GetPromotesToMostRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")       // promotes "a"; "b" is now least recently used
	c.Set("c", 3) // evicts "b"

	if _, ok := c.Get("b"); ok {
		t.Fatal("Get(b) after eviction = true, want false")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = (%v, %v), want (1, true)", v, ok)
	}
}

func TestLRUCache_DeleteRemovesEntry(t *testing.T) {
	c := NewLRUCache(3)
	c.Set("key1", "value1")

	if !c.Delete("key1") {
		t.Fatal("Delete(key1) = false, want true")
	}
	if _, ok := c.Get("key1"); ok {
		t.Fatal("Get(key1) after Delete = true, want false")
	}
}

func TestLRUCache_MinimumCapacityIsOne(t *testing.T) {
	c := NewLRUCache(0)
	c.Set("a", 1)
	c.Set("b", 2)

	if size := c.Size(); size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	c := NewLRUCache(50)
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				c.Set("key", i)
				c.Get("key")
			}
		}(i)
	}

	for i := 0; i < 20; i++ {
		<-done
	}
}
