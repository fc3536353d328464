package engine

import (
	"container/list"
	"sync"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/rag"
)

// defaultCacheCapacity bounds how many non-default synthesizer entries are
// memoized before LRU eviction kicks in.
const defaultCacheCapacity = 16

type synthKey struct {
	model     string
	streaming bool
}

// synthEntry pairs a constructed LLM client with its synthesis strategy.
type synthEntry struct {
	llm         llm.LLM
	synthesizer rag.Synthesizer
}

type cacheItem struct {
	key   synthKey
	entry *synthEntry
}

// synthCache memoizes synthesizer entries per (model, streaming) key.
// The default entry is built eagerly, checked before the map, and never
// evicted. Entry construction is local client setup with no network I/O,
// so it is done under the lock.
type synthCache struct {
	mu       sync.Mutex
	capacity int
	factory  func(key synthKey) *synthEntry

	defaultKey   synthKey
	defaultEntry *synthEntry

	entries map[synthKey]*list.Element
	order   *list.List // front is most recently used
}

func newSynthCache(capacity int, defaultKey synthKey, factory func(key synthKey) *synthEntry) *synthCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &synthCache{
		capacity:     capacity,
		factory:      factory,
		defaultKey:   defaultKey,
		defaultEntry: factory(defaultKey),
		entries:      make(map[synthKey]*list.Element),
		order:        list.New(),
	}
}

// Get returns the memoized entry for key, constructing it on first use.
func (c *synthCache) Get(key synthKey) *synthEntry {
	if key == c.defaultKey {
		return c.defaultEntry
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheItem).entry
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheItem).key)
		}
	}

	entry := c.factory(key)
	c.entries[key] = c.order.PushFront(&cacheItem{key: key, entry: entry})
	return entry
}

// Len returns the number of memoized non-default entries.
func (c *synthCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
