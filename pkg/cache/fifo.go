// Package cache holds the bounded suggestion cache used by the autocomplete orchestrator.
//
// Entries are keyed by the normalized query and evicted strictly in insertion order.
// Reads never promote an entry, so this is a FIFO bound and not an LRU.
package cache

import (
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultMaxEntries is the capacity used when a non-positive bound is given.
const DefaultMaxEntries = 50

// FIFO maps cache keys to suggestion lists. Keys live in a patricia trie so
// cached queries sharing a prefix can be listed without scanning.
type FIFO[T any] struct {
	entries    *patricia.Trie
	order      []string
	maxEntries int

	hits      int64
	misses    int64
	evictions int64
	mu        sync.Mutex
}

// New creates a cache bounded to maxEntries.
func New[T any](maxEntries int) *FIFO[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FIFO[T]{
		entries:    patricia.NewTrie(),
		order:      make([]string, 0, maxEntries+1),
		maxEntries: maxEntries,
	}
}

// Key derives the cache key for an effective query: trimmed and lower-cased,
// so differently cased spellings of a query share one entry.
func Key(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached list for key.
func (c *FIFO[T]) Get(key string) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.entries.Get(patricia.Prefix(key))
	if item == nil {
		c.misses++
		return nil, false
	}
	c.hits++
	return slices.Clone(item.([]T)), true
}

// Put inserts or overwrites key. Overwriting keeps the entry's original
// insertion slot. When the bound is exceeded the oldest entry is evicted.
func (c *FIFO[T]) Put(key string, list []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]T, len(list))
	copy(stored, list)

	if c.entries.Get(patricia.Prefix(key)) == nil {
		c.order = append(c.order, key)
	}
	c.entries.Set(patricia.Prefix(key), stored)

	if len(c.order) > c.maxEntries {
		c.evictOldest()
	}
}

// Len returns the number of cached entries.
func (c *FIFO[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Keys returns the cached keys, oldest first.
func (c *FIFO[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// WithPrefix lists cached keys starting with prefix.
func (c *FIFO[T]) WithPrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	err := c.entries.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		keys = append(keys, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting cache subtree: %v", err)
	}
	return keys
}

// Stats reports occupancy and hit counters.
func (c *FIFO[T]) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]int{
		"entries":    len(c.order),
		"maxEntries": c.maxEntries,
		"hits":       int(c.hits),
		"misses":     int(c.misses),
		"evictions":  int(c.evictions),
	}
}

func (c *FIFO[T]) evictOldest() {
	oldest := c.order[0]
	c.order = c.order[1:]
	c.entries.Delete(patricia.Prefix(oldest))
	c.evictions++
	log.Debugf("Evicted query '%s' from suggestion cache", oldest)
}
