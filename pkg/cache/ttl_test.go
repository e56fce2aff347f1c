package cache

import (
	"testing"
	"time"
)

func TestTTLCache_GetOnNeverSetKey(t *testing.T) {
	c := NewTTLCache(time.Minute)
	if v, ok := c.Get("missing"); ok || v != nil {
		t.Fatalf("Get on unseen key = (%v, %v), want (nil, false)", v, ok)
	}
}

func TestTTLCache_SetThenGetWithinTTL(t *testing.T) {
	c := NewTTLCache(time.Minute)
	c.Set("key1", "value1")

	v, ok := c.Get("key1")
	if !ok || v != "value1" {
		t.Fatalf("Get(key1) = (%v, %v), want (value1, true)", v, ok)
	}
}

func TestTTLCache_SetOverwritesExistingKey(t *testing.T) {
	c := NewTTLCache(time.Minute)
	c.Set("key1", "value1")
	c.Set("key1", "value01")

	v, ok := c.Get("key1")
	if !ok || v != "value01" {
		t.Fatalf("Get(key1) = (%v, %v), want (value01, true)", v, ok)
	}
	if size := c.Size(); size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}
}

func TestTTLCache_ExpiresAfterTTL(t *testing.T) {
	c := NewTTLCache(50 * time.Millisecond)
	c.Set("key1", "value1")

	time.Sleep(100 * time.Millisecond)

	v, ok := c.Get("key1")
	if ok || v != nil {
		t.Fatalf("Get(key1) after expiry = (%v, %v), want (nil, false)", v, ok)
	}
	if size := c.Size(); size != 0 {
		t.Fatalf("Size() after expiry sweep = %d, want 0", size)
	}
}

func TestTTLCache_SetExtendsExpiryFromWriteTime(t *testing.T) {
	c := NewTTLCache(80 * time.Millisecond)
	c.Set("key1", "value1")

	time.Sleep(50 * time.Millisecond)
	c.Set("key1", "value2") // refreshes expiry

	time.Sleep(50 * time.Millisecond)
	if v, ok := c.Get("key1"); !ok || v != "value2" {
		t.Fatalf("Get(key1) after refresh = (%v, %v), want (value2, true)", v, ok)
	}
}

func TestTTLCache_DeleteRemovesEntry(t *testing.T) {
	c := NewTTLCache(time.Minute)
	c.Set("key1", "value1")

	if !c.Delete("key1") {
		t.Fatal("Delete(key1) = false, want true")
	}
	if _, ok := c.Get("key1"); ok {
		t.Fatal("Get(key1) after Delete = true, want false")
	}
	if c.Delete("key1") {
		t.Fatal("second Delete(key1) = true, want false")
	}
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache(time.Minute)
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
