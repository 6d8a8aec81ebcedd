package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	testCases := []struct {
		query    string
		expected string
	}{
		{"apple", "apple"},
		{"Apple", "apple"},
		{"  APricot ", "apricot"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Key(tc.query), "Key(%q)", tc.query)
	}
}

func TestGetPut(t *testing.T) {
	c := New[string](3)

	_, ok := c.Get("ap")
	assert.False(t, ok)

	c.Put(Key("AP"), []string{"apple", "apricot"})

	got, ok := c.Get(Key("ap"))
	require.True(t, ok)
	assert.Equal(t, []string{"apple", "apricot"}, got)

	stats := c.Stats()
	assert.Equal(t, 1, stats["hits"])
	assert.Equal(t, 1, stats["misses"])
}

func TestEmptyListIsAHit(t *testing.T) {
	c := New[string](3)
	c.Put("zz", []string{})

	got, ok := c.Get("zz")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestStoredListIsIsolated(t *testing.T) {
	c := New[string](3)
	list := []string{"apple"}
	c.Put("ap", list)
	list[0] = "mutated"

	got, _ := c.Get("ap")
	got[0] = "also mutated"

	again, _ := c.Get("ap")
	assert.Equal(t, []string{"apple"}, again)
}

func TestEvictsOldestInserted(t *testing.T) {
	const max = 5
	c := New[int](max)

	for i := 0; i <= max; i++ {
		c.Put(fmt.Sprintf("key%d", i), []int{i})
	}

	assert.Equal(t, max, c.Len())
	_, ok := c.Get("key0")
	assert.False(t, ok, "first inserted key should be evicted")
	for i := 1; i <= max; i++ {
		_, ok := c.Get(fmt.Sprintf("key%d", i))
		assert.True(t, ok, "key%d should be retained", i)
	}
	assert.Equal(t, 1, c.Stats()["evictions"])
}

func TestReadDoesNotPromote(t *testing.T) {
	c := New[int](2)
	c.Put("a", []int{1})
	c.Put("b", []int{2})

	// reading "a" must not save it from eviction
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", []int{3})
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestOverwriteKeepsSlot(t *testing.T) {
	c := New[int](2)
	c.Put("a", []int{1})
	c.Put("b", []int{2})
	c.Put("a", []int{10})

	assert.Equal(t, 2, c.Len())
	got, _ := c.Get("a")
	assert.Equal(t, []int{10}, got)

	c.Put("c", []int{3})
	_, ok := c.Get("a")
	assert.False(t, ok, "overwritten key keeps its original insertion slot")
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestWithPrefix(t *testing.T) {
	c := New[string](10)
	c.Put("ap", nil)
	c.Put("app", nil)
	c.Put("ban", nil)

	assert.ElementsMatch(t, []string{"ap", "app"}, c.WithPrefix("ap"))
	assert.Empty(t, c.WithPrefix("x"))
}

func TestDefaultBound(t *testing.T) {
	c := New[string](0)
	assert.Equal(t, DefaultMaxEntries, c.Stats()["maxEntries"])
}
