package suggest

import (
	"context"
	"testing"

	"github.com/bastiangx/typeahead/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompleter() *Completer {
	c := NewCompleter()
	c.AddEntries([]dictionary.Entry{
		{Word: "apple", Score: 900},
		{Word: "apricot", Score: 300},
		{Word: "application", Score: 500},
		{Word: "apples", Score: 400},
		{Word: "applesauce", Score: 100},
		{Word: "ap", Score: 1000},
		{Word: "aphid", Score: 22},
		{Word: "banana", Score: 800},
		{Word: "bandana", Score: 50},
	})
	return c
}

func words(s []Suggestion) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		out = append(out, x.Word)
	}
	return out
}

func TestCompleteOrdersByFrequency(t *testing.T) {
	c := newTestCompleter()

	got := c.Complete("app", 3)
	assert.Equal(t, []string{"apple", "application", "apples"}, words(got))
	assert.Equal(t, 900, got[0].Frequency)
}

func TestCompleteSkipsExactInputAndLowFrequency(t *testing.T) {
	c := newTestCompleter()

	got := words(c.Complete("ap", 0))
	assert.NotContains(t, got, "ap")
	// Two letter prefixes need frequency 24, aphid has 22.
	assert.NotContains(t, got, "aphid")

	assert.Contains(t, words(c.Complete("aph", 0)), "aphid")
}

func TestCompleteKeepsCapitalization(t *testing.T) {
	c := newTestCompleter()
	got := c.Complete("Appl", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple", got[0].Word)
}

func TestCompleteNoMatch(t *testing.T) {
	c := newTestCompleter()
	assert.Empty(t, c.Complete("zzz", 5))
	assert.Empty(t, c.Complete("", 5))
}

func TestCompleteWithFuzzyCorrectsPrefix(t *testing.T) {
	c := newTestCompleter()

	got := c.CompleteWithFuzzy("bananq", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "banana", got[0].Word)
	assert.True(t, got[0].WasCorrected)
	assert.Equal(t, "bananq", got[0].OriginalPrefix)
	assert.Equal(t, "banana", got[0].CorrectedPrefix)

	exact := c.CompleteWithFuzzy("app", 2)
	require.NotEmpty(t, exact)
	assert.False(t, exact[0].WasCorrected)

	assert.Empty(t, c.CompleteWithFuzzy("qq", 5))
}

func TestRelated(t *testing.T) {
	c := newTestCompleter()

	assert.Equal(t, []string{"applesauce"}, words(c.Related("apples", 5)))
	assert.Equal(t, []string{"banana"}, words(c.Related("bandana", 5)))
	assert.Empty(t, c.Related("  ", 5))
}

func TestAddWordReplacesFrequency(t *testing.T) {
	c := NewCompleter()
	c.AddWord("Word", 30)
	c.AddWord("word", 40)
	c.AddWord("words", 50)

	stats := c.Stats()
	assert.Equal(t, 2, stats["totalWords"])
	assert.Equal(t, 50, stats["maxFrequency"])

	c.SetMinFrequency(0)
	got := c.Complete("wor", 0)
	assert.Equal(t, []Suggestion{{Word: "words", Frequency: 50}, {Word: "word", Frequency: 40}}, got)
}

func TestFetcherHonoursContext(t *testing.T) {
	c := newTestCompleter()
	fetch := Fetcher(c, 2, false)

	got, err := fetch(context.Background(), "app")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetch(ctx, "app")
	assert.ErrorIs(t, err, context.Canceled)

	related, err := Selector(c, 5)(context.Background(), "apples")
	require.NoError(t, err)
	assert.Equal(t, "applesauce", Label(related[0]))
}
