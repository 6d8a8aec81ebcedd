package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written from orchestrator goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newHandler(t *testing.T, in string) (*InputHandler, *autocomplete.Orchestrator[suggest.Suggestion], *syncBuffer) {
	t.Helper()
	completer := suggest.NewCompleter()
	completer.AddWord("apple", 900)
	completer.AddWord("apricot", 300)

	out := &syncBuffer{}
	h := NewInputHandler(strings.NewReader(in), out, 20, false)

	opts := autocomplete.DefaultOptions()
	opts.Debounce = time.Millisecond
	opts.Logger = logger.Discard()
	ac := autocomplete.New(opts, autocomplete.Hooks[suggest.Suggestion]{
		Fetch:    suggest.Fetcher(completer, 5, false),
		OnChange: h.Render,
		Label:    suggest.Label,
	})
	h.Attach(ac)
	t.Cleanup(func() {
		ac.Close()
		ac.Wait()
	})
	return h, ac, out
}

func TestTypingAndNavigation(t *testing.T) {
	h, ac, out := newHandler(t, "")

	assert.False(t, h.handleLine("ap"))
	require.Eventually(t, func() bool {
		return ac.Snapshot().Status == autocomplete.StatusSuccess
	}, time.Second, time.Millisecond)
	assert.Contains(t, out.String(), "apple")
	assert.Contains(t, out.String(), "900")

	h.handleLine(":down")
	assert.Equal(t, 0, ac.Snapshot().Highlight)
	h.handleLine(":end")
	assert.Equal(t, 1, ac.Snapshot().Highlight)
	h.handleLine(":home")
	assert.Equal(t, 0, ac.Snapshot().Highlight)
	h.handleLine(":up")
	assert.Equal(t, 1, ac.Snapshot().Highlight)
	assert.Contains(t, out.String(), "> 2.")

	h.handleLine(":pick 1")
	assert.Equal(t, "apple", ac.Snapshot().Input)

	// Without a selection hook the picked word is queried like typed input.
	require.Eventually(t, func() bool {
		return ac.Cache().Len() == 2
	}, time.Second, time.Millisecond)
	h.handleLine(":cache")
	assert.Contains(t, out.String(), "cache: 2/50 entries")
	h.handleLine(":cache zz")
	assert.NotContains(t, out.String(), "  zz")

	h.handleLine(":clear")
	assert.Empty(t, ac.Snapshot().Input)

	assert.True(t, h.handleLine(":quit"))
}

func TestRejectedInput(t *testing.T) {
	h, ac, _ := newHandler(t, "")

	h.handleLine("ap!")
	h.handleLine(strings.Repeat("a", 21))
	assert.Empty(t, ac.Snapshot().Input)

	h.handleLine(":pick x")
	h.handleLine(":bogus")
	assert.Empty(t, ac.Snapshot().Input)
}

func TestPickOutOfRangeSelectsNothing(t *testing.T) {
	h, ac, _ := newHandler(t, "")
	ac.SetSuggestions([]suggest.Suggestion{{Word: "apple"}, {Word: "apricot"}, {Word: "apex"}})
	ac.SetHighlightIndex(0)

	h.handleLine(":pick 9")
	h.handleLine(":pick 0")
	s := ac.Snapshot()
	assert.Empty(t, s.Input)
	assert.Equal(t, 0, s.Highlight)
	assert.Len(t, s.Suggestions, 3)

	h.handleLine(":pick 3")
	assert.Equal(t, "apex", ac.Snapshot().Input)
}

func TestStartStopsOnQuit(t *testing.T) {
	h, _, out := newHandler(t, ":help\n:quit\nnever\n")

	require.NoError(t, h.Start(context.Background()))
	assert.Contains(t, out.String(), ":pick [n]")
}

func TestRenderIgnoresStaleSnapshots(t *testing.T) {
	h, _, out := newHandler(t, "")

	h.Render(autocomplete.State[suggest.Suggestion]{
		Revision:    5,
		Status:      autocomplete.StatusSuccess,
		Suggestions: []suggest.Suggestion{{Word: "fresh"}},
		Highlight:   -1,
	})
	h.Render(autocomplete.State[suggest.Suggestion]{
		Revision:    4,
		Status:      autocomplete.StatusSuccess,
		Suggestions: []suggest.Suggestion{{Word: "stale"}},
		Highlight:   -1,
	})

	assert.Contains(t, out.String(), "fresh")
	assert.NotContains(t, out.String(), "stale")
}
