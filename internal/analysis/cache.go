package analysis

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
)

// Cache is an in-memory result cache keyed by content hash. Entries are
// never evicted; AI replies are small and inputs rarely repeat beyond a
// study session.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]T)}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[T]) Put(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key hashes the inputs that determine an AI reply. The separator keeps
// ("ab","c") and ("a","bc") from colliding.
func Key(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|||")))
	return hex.EncodeToString(sum[:])
}

// KeyBytes hashes raw content, used for image payloads.
func KeyBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// Caches bundles the per-flow caches so they can be shared between the
// speaking and writing services and inspected in tests.
type Caches struct {
	Image    *Cache[string]
	Sentence *Cache[SentenceAnalysis]
	Email    *Cache[EmailAnalysis]
	Essay    *Cache[EssayAnalysis]
}

func NewCaches() *Caches {
	return &Caches{
		Image:    NewCache[string](),
		Sentence: NewCache[SentenceAnalysis](),
		Email:    NewCache[EmailAnalysis](),
		Essay:    NewCache[EssayAnalysis](),
	}
}
