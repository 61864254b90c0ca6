package analysis

import (
	"sync"
	"testing"
)

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	c := NewCache[string]()
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache returned ok")
	}
	c.Put("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get(k) = %q, %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewCache[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Put(Key("k", string(rune('a'+n%5))), n)
			c.Get(Key("k", "a"))
		}(i)
	}
	wg.Wait()
	if c.Len() != 5 {
		t.Errorf("Len = %d, want 5 distinct keys", c.Len())
	}
}

func TestKey_SeparatorPreventsCollision(t *testing.T) {
	t.Parallel()

	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Key(ab,c) collides with Key(a,bc)")
	}
	if Key("x") != Key("x") {
		t.Error("Key is not deterministic")
	}
}

func TestKeyBytes(t *testing.T) {
	t.Parallel()

	a := KeyBytes([]byte{1, 2, 3})
	b := KeyBytes([]byte{1, 2, 4})
	if a == b {
		t.Error("distinct payloads produced the same key")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32 hex chars", len(a))
	}
}
