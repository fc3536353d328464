package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/rag"
)

func newTestCache(capacity int) (*synthCache, *int) {
	built := 0
	factory := func(key synthKey) *synthEntry {
		built++
		model := llm.NewMockLLM("response for " + key.model)
		return &synthEntry{
			llm:         model,
			synthesizer: rag.NewCompactSynthesizer(model, key.streaming),
		}
	}
	return newSynthCache(capacity, synthKey{model: "default-model"}, factory), &built
}

func TestSynthCache_SameKeyReturnsSameEntry(t *testing.T) {
	cache, built := newTestCache(4)

	a := cache.Get(synthKey{model: "m1", streaming: true})
	b := cache.Get(synthKey{model: "m1", streaming: true})

	assert.Same(t, a, b)
	// 1 default + 1 memoized.
	assert.Equal(t, 2, *built)
}

func TestSynthCache_DifferentKeysDifferentEntries(t *testing.T) {
	cache, _ := newTestCache(4)

	a := cache.Get(synthKey{model: "m1", streaming: false})
	b := cache.Get(synthKey{model: "m1", streaming: true})
	c := cache.Get(synthKey{model: "m2", streaming: false})

	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, b, c)
}

func TestSynthCache_DefaultEntryBypassesMap(t *testing.T) {
	cache, built := newTestCache(4)
	require.Equal(t, 1, *built)

	entry := cache.Get(synthKey{model: "default-model"})

	assert.Same(t, cache.defaultEntry, entry)
	assert.Equal(t, 1, *built)
	assert.Equal(t, 0, cache.Len())
}

func TestSynthCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, _ := newTestCache(2)

	a := cache.Get(synthKey{model: "a"})
	cache.Get(synthKey{model: "b"})

	// Touch a so b becomes the eviction candidate.
	cache.Get(synthKey{model: "a"})
	cache.Get(synthKey{model: "c"})

	assert.Equal(t, 2, cache.Len())
	assert.Same(t, a, cache.Get(synthKey{model: "a"}))

	// b was evicted, so fetching it constructs a fresh entry and in turn
	// evicts c (the new least recently used after a and b).
	_, inMap := cache.entries[synthKey{model: "c"}]
	cache.Get(synthKey{model: "b"})
	assert.True(t, inMap)
	_, stillThere := cache.entries[synthKey{model: "c"}]
	assert.False(t, stillThere)
}

func TestSynthCache_DefaultNeverEvicted(t *testing.T) {
	cache, built := newTestCache(2)

	for i := 0; i < 10; i++ {
		cache.Get(synthKey{model: fmt.Sprintf("model-%d", i)})
	}

	assert.Equal(t, 2, cache.Len())
	before := *built
	entry := cache.Get(synthKey{model: "default-model"})
	assert.Same(t, cache.defaultEntry, entry)
	assert.Equal(t, before, *built)
}
