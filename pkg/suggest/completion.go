package suggest

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/dictionary"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultMinFrequency is the lowest frequency a suggestion may have.
// Prefixes of one or two characters, and repetitive ones, need
// shortPrefixBoost more.
const (
	DefaultMinFrequency = 20
	shortPrefixBoost    = 4
)

// Suggestion is a completed word.
type Suggestion struct {
	Word            string
	Frequency       int
	WasCorrected    bool   `json:",omitempty"`
	OriginalPrefix  string `json:",omitempty"`
	CorrectedPrefix string `json:",omitempty"`
}

// String returns the word, so suggestions print as plain text.
func (s Suggestion) String() string {
	return s.Word
}

// Completer answers prefix queries. It is safe for concurrent use.
type Completer struct {
	mu           sync.RWMutex
	trie         *patricia.Trie
	totalWords   int
	maxFrequency int
	minFrequency int
}

// NewCompleter returns an empty completer.
func NewCompleter() *Completer {
	return &Completer{
		trie:         patricia.NewTrie(),
		minFrequency: DefaultMinFrequency,
	}
}

// SetMinFrequency changes the frequency threshold. Negative values are ignored.
func (c *Completer) SetMinFrequency(n int) {
	if n < 0 {
		return
	}
	c.mu.Lock()
	c.minFrequency = n
	c.mu.Unlock()
}

// AddWord inserts a word, lower-cased. Re-adding a word replaces its frequency.
func (c *Completer) AddWord(word string, frequency int) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trie.Insert(patricia.Prefix(word), frequency) {
		c.totalWords++
	} else {
		c.trie.Set(patricia.Prefix(word), frequency)
	}
	if frequency > c.maxFrequency {
		c.maxFrequency = frequency
	}
}

// AddEntries inserts dictionary entries.
func (c *Completer) AddEntries(entries []dictionary.Entry) {
	for _, e := range entries {
		c.AddWord(e.Word, e.Score)
	}
}

// Complete returns up to limit words starting with prefix, case-insensitively,
// most frequent first. The prefix itself is never suggested and the
// capitalization typed so far is carried over to each word.
func (c *Completer) Complete(prefix string, limit int) []Suggestion {
	lowerPrefix := strings.ToLower(prefix)
	if lowerPrefix == "" {
		return []Suggestion{}
	}

	c.mu.RLock()
	found := searchTrie(c.trie, lowerPrefix, c.threshold(lowerPrefix), false)
	c.mu.RUnlock()

	out := rank(found, prefix, limit)
	for i := range out {
		out[i].Word = utils.ApplyCapitalization(out[i].Word, prefix)
	}
	return out
}

// Related returns longer words that start with word, or, when there are
// none, dictionary words within a small edit distance of it.
func (c *Completer) Related(word string, limit int) []Suggestion {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" {
		return []Suggestion{}
	}

	if out := c.Complete(lower, limit); len(out) > 0 {
		return out
	}

	c.mu.RLock()
	neighbours := c.similarWords(lower, maxEditDistance(lower))
	c.mu.RUnlock()
	return rank(neighbours, lower, limit)
}

// Stats reports the dictionary size.
func (c *Completer) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]int{
		"totalWords":   c.totalWords,
		"maxFrequency": c.maxFrequency,
		"minFrequency": c.minFrequency,
	}
}

// threshold must be called with c.mu held.
func (c *Completer) threshold(lowerPrefix string) int {
	if utf8.RuneCountInString(lowerPrefix) <= 2 || utils.IsRepetitive(lowerPrefix) {
		return c.minFrequency + shortPrefixBoost
	}
	return c.minFrequency
}

var _ ICompleter = (*Completer)(nil)
