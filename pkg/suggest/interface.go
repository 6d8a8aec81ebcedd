// Package suggest is the local suggestion source: prefix lookups over a
// patricia trie of weighted words, with optional typo correction.
package suggest

// ICompleter is implemented by word completion engines.
type ICompleter interface {
	// Complete returns up to limit words starting with prefix, best first.
	Complete(prefix string, limit int) []Suggestion

	// CompleteWithFuzzy behaves like Complete but corrects the prefix when
	// nothing matches it as typed.
	CompleteWithFuzzy(prefix string, limit int) []Suggestion

	// Related returns words that follow up on a chosen word.
	Related(word string, limit int) []Suggestion

	// AddWord adds a word with its frequency to the completer
	AddWord(word string, frequency int)

	// Stats returns statistics about the loaded dictionary
	Stats() map[string]int
}
