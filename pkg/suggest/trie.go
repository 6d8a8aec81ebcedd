package suggest

import (
	"sort"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// searchTrie collects the words under lowerPrefix whose frequency reaches
// minThreshold. The prefix itself is only returned when includeExact is set.
func searchTrie(trie *patricia.Trie, lowerPrefix string, minThreshold int, includeExact bool) []Suggestion {
	var suggestions []Suggestion

	err := trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		if word == lowerPrefix && !includeExact {
			return nil
		}

		freq := itemFrequency(word, item)
		if freq < minThreshold {
			return nil
		}
		suggestions = append(suggestions, Suggestion{
			Word:      word,
			Frequency: freq,
		})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}
	return suggestions
}

func itemFrequency(word string, item patricia.Item) int {
	switch v := item.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case uint16:
		return int(v)
	}
	log.Errorf("Unknown item type: %T for word %s", item, word)
	return 1
}

// rank sorts by frequency, highest first, then alphabetically, drops
// case-insensitive duplicates of input and each other, and applies limit.
func rank(suggestions []Suggestion, input string, limit int) []Suggestion {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Frequency != suggestions[j].Frequency {
			return suggestions[i].Frequency > suggestions[j].Frequency
		}
		return suggestions[i].Word < suggestions[j].Word
	})

	filter := utils.NewSuggestionFilter(input)
	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if !filter.ShouldInclude(s.Word) {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
