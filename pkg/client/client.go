// Package client talks to a completion server over its msgpack stream and
// adapts it into fetch hooks for the autocomplete orchestrator.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrClosed is returned by calls on a closed client or after the server's
// output ended.
var ErrClosed = errors.New("client: closed")

// ServerError is a request the server rejected.
type ServerError struct {
	ID      string
	Code    int
	Message string
}

// Error implements the error interface
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Client multiplexes concurrent requests over one stream. Responses are
// routed to their callers by request ID, so a call abandoned through its
// context does not disturb later ones.
type Client struct {
	r io.Reader
	w io.Writer

	wmu sync.Mutex
	enc *msgpack.Encoder

	mu      sync.Mutex
	pending map[string]chan server.Envelope
	closed  bool
	err     error

	nextID atomic.Uint64
	done   chan struct{}
}

// New starts a client reading responses from r and writing requests to w.
func New(r io.Reader, w io.Writer) *Client {
	c := &Client{
		r:       r,
		w:       w,
		enc:     msgpack.NewEncoder(w),
		pending: make(map[string]chan server.Envelope),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Complete asks for completions of prefix.
func (c *Client) Complete(ctx context.Context, prefix string, limit int) ([]suggest.Suggestion, error) {
	return c.call(ctx, server.ModeComplete, prefix, limit)
}

// CompleteWithFuzzy asks for completions, letting the server correct the prefix.
func (c *Client) CompleteWithFuzzy(ctx context.Context, prefix string, limit int) ([]suggest.Suggestion, error) {
	return c.call(ctx, server.ModeFuzzy, prefix, limit)
}

// Related asks for follow ups of a chosen word.
func (c *Client) Related(ctx context.Context, word string, limit int) ([]suggest.Suggestion, error) {
	return c.call(ctx, server.ModeRelated, word, limit)
}

// Done is closed once the reader stops, when the server ends its output or
// the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes both ends of the stream where possible and waits for the
// reader to stop. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var errs []error
	if closer, ok := c.w.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if closer, ok := c.r.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	<-c.done
	return errors.Join(errs...)
}

func (c *Client) call(ctx context.Context, mode, prefix string, limit int) ([]suggest.Suggestion, error) {
	id := strconv.FormatUint(c.nextID.Add(1), 10)
	ch := make(chan server.Envelope, 1)

	c.mu.Lock()
	if c.closed || c.err != nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	req := server.CompletionRequest{ID: id, Prefix: prefix, Limit: limit, Mode: mode}
	c.wmu.Lock()
	err := c.enc.Encode(req)
	c.wmu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	select {
	case env := <-ch:
		if env.Error != "" {
			return nil, &ServerError{ID: env.ID, Code: env.Count, Message: env.Error}
		}
		return toSuggestions(env, prefix), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop routes responses until the stream ends.
func (c *Client) readLoop() {
	defer close(c.done)

	dec := msgpack.NewDecoder(c.r)
	for {
		var env server.Envelope
		if err := dec.Decode(&env); err != nil {
			c.mu.Lock()
			c.err = err
			closed := c.closed
			c.mu.Unlock()
			if !closed && !errors.Is(err, io.EOF) {
				log.Warnf("Reading responses: %v", err)
			}
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[env.ID]
		delete(c.pending, env.ID)
		c.mu.Unlock()
		if !ok {
			log.Debugf("Dropping response for abandoned request %q", env.ID)
			continue
		}
		ch <- env
	}
}

func toSuggestions(env server.Envelope, prefix string) []suggest.Suggestion {
	out := make([]suggest.Suggestion, len(env.Suggestions))
	for i, s := range env.Suggestions {
		out[i] = suggest.Suggestion{Word: s.Word, Frequency: s.Freq}
		if env.Corrected != "" {
			out[i].WasCorrected = true
			out[i].OriginalPrefix = prefix
			out[i].CorrectedPrefix = env.Corrected
		}
	}
	return out
}

// Fetcher adapts c into the orchestrator's fetch hook.
func Fetcher(c *Client, limit int, fuzzy bool) autocomplete.FetchFunc[suggest.Suggestion] {
	return func(ctx context.Context, query string) ([]suggest.Suggestion, error) {
		if fuzzy {
			return c.CompleteWithFuzzy(ctx, query, limit)
		}
		return c.Complete(ctx, query, limit)
	}
}

// Selector adapts c.Related into the orchestrator's selection hook.
func Selector(c *Client, limit int) autocomplete.SelectFunc[suggest.Suggestion] {
	return func(ctx context.Context, value string) ([]suggest.Suggestion, error) {
		return c.Related(ctx, value, limit)
	}
}
