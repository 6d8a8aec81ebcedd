package suggest

import (
	"context"

	"github.com/bastiangx/typeahead/pkg/autocomplete"
)

// Fetcher adapts c into the orchestrator's fetch hook. With fuzzy set,
// mistyped prefixes are corrected.
func Fetcher(c ICompleter, limit int, fuzzy bool) autocomplete.FetchFunc[Suggestion] {
	return func(ctx context.Context, query string) ([]Suggestion, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fuzzy {
			return c.CompleteWithFuzzy(query, limit), nil
		}
		return c.Complete(query, limit), nil
	}
}

// Selector adapts c.Related into the orchestrator's selection hook.
func Selector(c ICompleter, limit int) autocomplete.SelectFunc[Suggestion] {
	return func(ctx context.Context, value string) ([]Suggestion, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.Related(value, limit), nil
	}
}

// Label is the text a suggestion puts into the input.
func Label(s Suggestion) string {
	return s.Word
}
