package client

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// pair wires a client to handler through two pipes and tears both down.
func pair(t *testing.T, handler func(r io.Reader, w io.Writer)) *Client {
	t.Helper()
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer respW.Close()
		handler(reqR, respW)
	}()

	c := New(respR, reqW)
	t.Cleanup(func() {
		c.Close()
		reqR.Close()
		wg.Wait()
	})
	return c
}

func realServer(r io.Reader, w io.Writer) {
	completer := suggest.NewCompleter()
	completer.AddWord("apple", 900)
	completer.AddWord("apples", 400)
	completer.AddWord("applesauce", 100)
	completer.AddWord("banana", 800)
	_ = server.NewServer(completer, config.DefaultConfig().Server, r, w).Serve(context.Background())
}

func words(s []suggest.Suggestion) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		out = append(out, x.Word)
	}
	return out
}

func TestAgainstServer(t *testing.T) {
	c := pair(t, realServer)
	ctx := context.Background()

	got, err := c.Complete(ctx, "app", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "apples", "applesauce"}, words(got))
	assert.Equal(t, 900, got[0].Frequency)

	related, err := c.Related(ctx, "apples", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"applesauce"}, words(related))

	fuzzy, err := c.CompleteWithFuzzy(ctx, "bananq", 5)
	require.NoError(t, err)
	require.NotEmpty(t, fuzzy)
	assert.True(t, fuzzy[0].WasCorrected)
	assert.Equal(t, "banana", fuzzy[0].CorrectedPrefix)

	_, err = c.Complete(ctx, "", 5)
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, server.CodeBadRequest, serr.Code)
}

func TestResponsesRoutedByID(t *testing.T) {
	c := pair(t, func(r io.Reader, w io.Writer) {
		dec := msgpack.NewDecoder(r)
		enc := msgpack.NewEncoder(w)
		var first, second server.CompletionRequest
		if dec.Decode(&first) != nil || dec.Decode(&second) != nil {
			return
		}
		for _, req := range []server.CompletionRequest{second, first} {
			_ = enc.Encode(server.CompletionResponse{
				ID:          req.ID,
				Suggestions: []server.CompletionSuggestion{{Word: req.Prefix + "!", Rank: 1}},
				Count:       1,
			})
		}
		_, _ = io.Copy(io.Discard, r)
	})

	var wg sync.WaitGroup
	results := make(map[string]string)
	var mu sync.Mutex
	for _, prefix := range []string{"one", "two"} {
		prefix := prefix
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Complete(context.Background(), prefix, 1)
			if assert.NoError(t, err) && assert.Len(t, got, 1) {
				mu.Lock()
				results[prefix] = got[0].Word
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]string{"one": "one!", "two": "two!"}, results)
}

func TestAbandonedCallDoesNotLeak(t *testing.T) {
	release := make(chan struct{})
	c := pair(t, func(r io.Reader, w io.Writer) {
		dec := msgpack.NewDecoder(r)
		enc := msgpack.NewEncoder(w)
		for {
			var req server.CompletionRequest
			if dec.Decode(&req) != nil {
				return
			}
			if req.Prefix == "slow" {
				<-release
			}
			_ = enc.Encode(server.CompletionResponse{ID: req.ID, Suggestions: []server.CompletionSuggestion{{Word: req.Prefix}}})
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, "slow", 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	got, err := c.Complete(context.Background(), "fast", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"fast"}, words(got))
}

func TestCallsFailAfterClose(t *testing.T) {
	c := pair(t, realServer)
	require.NoError(t, c.Close())

	_, err := c.Complete(context.Background(), "ap", 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, c.Close())
}

func TestDoneWhenServerStops(t *testing.T) {
	c := pair(t, func(io.Reader, io.Writer) {})

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("reader still running after the server closed its output")
	}
	_, err := c.Complete(context.Background(), "ap", 1)
	assert.Error(t, err)
}

func TestFetcherDrivesOrchestrator(t *testing.T) {
	c := pair(t, realServer)

	opts := autocomplete.DefaultOptions()
	opts.Debounce = 5 * time.Millisecond
	opts.Logger = logger.Discard()
	o := autocomplete.New(opts, autocomplete.Hooks[suggest.Suggestion]{
		Fetch:  Fetcher(c, 5, false),
		Select: Selector(c, 5),
		Label:  suggest.Label,
	})
	defer func() {
		o.Close()
		o.Wait()
	}()

	o.UpdateInput("app")
	require.Eventually(t, func() bool {
		return o.Snapshot().Status == autocomplete.StatusSuccess
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, []string{"apple", "apples", "applesauce"}, words(o.Snapshot().Suggestions))

	o.SetHighlightIndex(1)
	_, ok := o.SelectHighlighted()
	require.True(t, ok)
	require.Eventually(t, func() bool {
		s := o.Snapshot()
		return s.Status == autocomplete.StatusSuccess && s.Input == "apples" && len(s.Suggestions) == 1
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, "applesauce", o.Snapshot().Suggestions[0].Word)
}
