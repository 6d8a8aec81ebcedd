package suggest

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/hbollon/go-edlib"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Prefixes shorter than this are never corrected.
const minFuzzyLength = 3

// correction is a candidate replacement for a mistyped prefix.
type correction struct {
	prefix     string
	distance   int
	similarity float32
	frequency  int
}

func (a correction) better(b correction) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if a.similarity != b.similarity {
		return a.similarity > b.similarity
	}
	if a.frequency != b.frequency {
		return a.frequency > b.frequency
	}
	return a.prefix < b.prefix
}

// CompleteWithFuzzy returns Complete(prefix, limit) when it finds anything.
// Otherwise the prefix is replaced by the closest prefix of a known word and
// the completions of that are returned with WasCorrected set.
func (c *Completer) CompleteWithFuzzy(prefix string, limit int) []Suggestion {
	if out := c.Complete(prefix, limit); len(out) > 0 {
		return out
	}

	lowerPrefix := strings.ToLower(prefix)
	if utf8.RuneCountInString(lowerPrefix) < minFuzzyLength {
		return []Suggestion{}
	}

	c.mu.RLock()
	best, ok := c.correctPrefix(lowerPrefix)
	var found []Suggestion
	if ok {
		found = searchTrie(c.trie, best.prefix, c.threshold(best.prefix), true)
	}
	c.mu.RUnlock()

	if !ok {
		return []Suggestion{}
	}

	out := rank(found, prefix, limit)
	for i := range out {
		out[i].Word = utils.ApplyCapitalization(out[i].Word, prefix)
		out[i].WasCorrected = true
		out[i].OriginalPrefix = prefix
		out[i].CorrectedPrefix = best.prefix
	}
	return out
}

// correctPrefix compares lowerPrefix with the same-length prefix of every
// word sharing its first letter. Must be called with c.mu held.
func (c *Completer) correctPrefix(lowerPrefix string) (correction, bool) {
	first, _ := utf8.DecodeRuneInString(lowerPrefix)
	n := utf8.RuneCountInString(lowerPrefix)
	limit := maxEditDistance(lowerPrefix)

	var best correction
	found := false
	_ = c.trie.VisitSubtree(patricia.Prefix(string(first)), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		candidate := runePrefix(word, n)
		distance := edlib.LevenshteinDistance(lowerPrefix, candidate)
		if distance == 0 || distance > limit {
			return nil
		}

		similarity, err := edlib.StringsSimilarity(lowerPrefix, candidate, edlib.JaroWinkler)
		if err != nil {
			similarity = 0
		}
		cand := correction{
			prefix:     candidate,
			distance:   distance,
			similarity: similarity,
			frequency:  itemFrequency(word, item),
		}
		if !found || cand.better(best) {
			best, found = cand, true
		}
		return nil
	})
	return best, found
}

// similarWords returns whole words within limit edits of word. Must be
// called with c.mu held.
func (c *Completer) similarWords(word string, limit int) []Suggestion {
	first, _ := utf8.DecodeRuneInString(word)
	var out []Suggestion
	_ = c.trie.VisitSubtree(patricia.Prefix(string(first)), func(p patricia.Prefix, item patricia.Item) error {
		candidate := string(p)
		if candidate == word {
			return nil
		}
		if edlib.LevenshteinDistance(word, candidate) <= limit {
			out = append(out, Suggestion{Word: candidate, Frequency: itemFrequency(candidate, item)})
		}
		return nil
	})
	return out
}

// maxEditDistance allows one typo in short words and two in longer ones.
func maxEditDistance(s string) int {
	if utf8.RuneCountInString(s) <= 4 {
		return 1
	}
	return 2
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
