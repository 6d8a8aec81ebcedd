package utils

import (
	"strings"
)

// SuggestionFilter drops case-insensitive duplicates and the input word
// itself while merging suggestion lists. It is not safe for concurrent use.
type SuggestionFilter struct {
	seen map[string]struct{}
}

// NewSuggestionFilter creates a filter that already excludes input.
func NewSuggestionFilter(input string) *SuggestionFilter {
	f := &SuggestionFilter{seen: make(map[string]struct{})}
	f.seen[strings.ToLower(input)] = struct{}{}
	return f
}

// ShouldInclude returns true the first time a word is offered.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	key := strings.ToLower(word)
	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}
