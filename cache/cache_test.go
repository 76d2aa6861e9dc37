package cache

import (
	"fmt"
	"testing"

	"github.com/fifth-light/danmaku-renderer/text"
)

func rasterKey(body string, sizePx float32) string {
	return fmt.Sprintf("%.2f:%s", sizePx, body)
}

func TestNew(t *testing.T) {
	c := New[string, text.RasterizedComment](100)
	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestNewDefaultCapacity(t *testing.T) {
	c := New[string, text.RasterizedComment](0)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("expected DefaultCapacity, got %d", c.Capacity())
	}
}

func TestCacheGetSet(t *testing.T) {
	c := New[string, text.RasterizedComment](10)

	key := rasterKey("Hello, danmaku!", 24)
	rc := text.RasterizedComment{Width: 80, Height: 20, BaselinePx: 16, AdvancePx: 80}
	c.Set(key, rc)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected key to exist")
	}
	if got.Width != rc.Width || got.Height != rc.Height || got.BaselinePx != rc.BaselinePx || got.AdvancePx != rc.AdvancePx {
		t.Errorf("got %+v, want %+v", got, rc)
	}

	if _, ok := c.Get(rasterKey("unseen", 24)); ok {
		t.Error("expected miss for key never set")
	}
}

func TestCacheSetUpdatesExisting(t *testing.T) {
	c := New[string, text.RasterizedComment](10)

	key := rasterKey("Hello", 18)
	c.Set(key, text.RasterizedComment{Width: 10})
	c.Set(key, text.RasterizedComment{Width: 20})

	if c.Len() != 1 {
		t.Errorf("expected 1 entry after re-Set, got %d", c.Len())
	}
	got, _ := c.Get(key)
	if got.Width != 20 {
		t.Errorf("expected updated value, got %+v", got)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New[string, text.RasterizedComment](10)
	key := rasterKey("danmaku", 24)
	c.Set(key, text.RasterizedComment{})

	if !c.Delete(key) {
		t.Error("expected Delete to return true for existing key")
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected key to be gone after Delete")
	}
	if c.Delete(key) {
		t.Error("expected Delete to return false for already-removed key")
	}
}

func TestCacheClear(t *testing.T) {
	c := New[string, text.RasterizedComment](10)
	c.Set(rasterKey("a", 24), text.RasterizedComment{})
	c.Set(rasterKey("b", 24), text.RasterizedComment{})
	c.Set(rasterKey("c", 24), text.RasterizedComment{})

	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected 0 entries after Clear, got %d", c.Len())
	}
}

// TestCacheEviction verifies that Set evicts the least recently used
// entry once the cache is at capacity, matching what Renderer.rasterized
// relies on to bound memory when many distinct comment strings scroll
// through a long-running stream.
func TestCacheEviction(t *testing.T) {
	c := New[string, text.RasterizedComment](3)

	keyA, keyB, keyC := rasterKey("a", 24), rasterKey("b", 24), rasterKey("c", 24)
	c.Set(keyA, text.RasterizedComment{Width: 1})
	c.Set(keyB, text.RasterizedComment{Width: 2})
	c.Set(keyC, text.RasterizedComment{Width: 3})

	// Touch keyA so it is no longer the least recently used.
	c.Get(keyA)

	keyD := rasterKey("d", 24)
	c.Set(keyD, text.RasterizedComment{Width: 4})

	if c.Len() != 3 {
		t.Fatalf("expected capacity to hold cache at 3 entries, got %d", c.Len())
	}
	if _, ok := c.Get(keyB); ok {
		t.Error("expected keyB (least recently used) to have been evicted")
	}
	if _, ok := c.Get(keyA); !ok {
		t.Error("expected keyA to survive eviction since it was touched")
	}
	if _, ok := c.Get(keyD); !ok {
		t.Error("expected newly-set keyD to be present")
	}
}

func TestLRUList(t *testing.T) {
	var l lruList[string]

	if l.len != 0 {
		t.Errorf("expected empty list, got %d", l.len)
	}

	n1 := l.PushFront("a")
	l.PushFront("b")
	l.PushFront("c")

	if l.len != 3 {
		t.Errorf("expected 3 elements, got %d", l.len)
	}

	// c is at front, a is oldest.
	l.MoveToFront(n1)
	oldest, ok := l.RemoveOldest()
	if !ok || oldest != "b" {
		t.Errorf("expected oldest to be 'b' after moving 'a' to front, got %v", oldest)
	}
	if l.len != 2 {
		t.Errorf("expected 2 elements remaining, got %d", l.len)
	}

	l.Remove(n1)
	if l.len != 1 {
		t.Errorf("expected 1 element remaining after removing 'a', got %d", l.len)
	}
}

func TestLRUListEmptyOperations(t *testing.T) {
	var l lruList[int]

	if _, ok := l.RemoveOldest(); ok {
		t.Error("expected RemoveOldest to return false on empty list")
	}

	l.Remove(nil)      // must not panic
	l.MoveToFront(nil) // must not panic
}
