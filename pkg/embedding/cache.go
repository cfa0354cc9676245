package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity bounds the query-embedding memo. Sermon queries repeat
// across turns of a session, so a small window captures most hits.
const DefaultCacheCapacity = 30

// Cache memoizes query embeddings in front of an EmbeddingProvider.
//
// Keys are the trimmed, casefolded input text. Capacity is fixed; inserting
// past it evicts the least-recently-inserted entry (FIFO). Concurrent calls
// for the same key share a single in-flight provider call. Provider failures
// propagate and are never cached.
type Cache struct {
	provider EmbeddingProvider
	capacity int

	mu      sync.Mutex
	entries map[string][]float32
	order   []string // insertion order, oldest first

	group singleflight.Group
}

func NewCache(provider EmbeddingProvider, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		provider: provider,
		capacity: capacity,
		entries:  make(map[string][]float32),
	}
}

// NormalizeKey folds semantically identical repeated queries onto one key.
func NormalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// GetOrCompute returns the cached vector for text, or computes it through the
// provider exactly once and stores it. The returned slice is the caller's to
// keep; mutating it never touches the cached copy.
func (c *Cache) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	key := NormalizeKey(text)
	if key == "" {
		return nil, fmt.Errorf("embedding cache: empty input text")
	}

	c.mu.Lock()
	if vec, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cloneVector(vec), nil
	}
	c.mu.Unlock()

	// singleflight collapses concurrent misses for the same key into one
	// provider call; losers receive the winner's result or error.
	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		if vec, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return vec, nil
		}
		c.mu.Unlock()

		resp, err := c.provider.Generate(ctx, strings.TrimSpace(text), TaskRetrievalQuery)
		if err != nil {
			return nil, err
		}
		vec := resp.Embedding.Values

		c.store(key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	// concurrent callers share one singleflight result, so each gets a copy
	return cloneVector(result.([]float32)), nil
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

func (c *Cache) store(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = vec
	c.order = append(c.order, key)
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
