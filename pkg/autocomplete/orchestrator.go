// Package autocomplete turns a keystroke stream into debounced, cached and
// retried fetches, and keeps the authoritative suggestion state for a single
// input widget.
//
// Every asynchronous continuation is stamped with the epoch that started it.
// Before touching state or the cache it checks that its epoch is still
// current, so results of superseded queries are discarded even when they
// arrive after newer ones.
//
// Actions (UpdateInput, Clear, navigation, selection) are synchronous and
// never fail; fetch failures end up in State.Err.
package autocomplete

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/cache"
	"github.com/bastiangx/typeahead/pkg/debounce"
	"github.com/bastiangx/typeahead/pkg/highlight"
	"github.com/bastiangx/typeahead/pkg/retry"
	"github.com/charmbracelet/log"
)

// Orchestrator owns the cache, the debounce timer and the in-flight request
// of one input. Instances never share anything.
type Orchestrator[T any] struct {
	opts     Options
	hooks    Hooks[T]
	log      *log.Logger
	cache    *cache.FIFO[T]
	debounce *debounce.Scheduler
	fetcher  *retry.Executor[T]
	selector *retry.Executor[T]

	// base is cancelled on Close and parents every request context.
	base context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	state  State[T]
	epoch  uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// New creates an orchestrator. hooks.Fetch is required.
func New[T any](opts Options, hooks Hooks[T]) *Orchestrator[T] {
	if hooks.Fetch == nil {
		panic("autocomplete: Hooks.Fetch is required")
	}
	if hooks.Label == nil {
		hooks.Label = func(item T) string { return fmt.Sprint(item) }
	}
	opts = opts.normalize()
	l := opts.Logger
	if l == nil {
		l = logger.Default("autocomplete")
	}

	base, stop := context.WithCancel(context.Background())
	return &Orchestrator[T]{
		opts:     opts,
		hooks:    hooks,
		log:      l,
		cache:    cache.New[T](opts.MaxCache),
		debounce: debounce.New(),
		fetcher:  retry.New[T](opts.Policy()),
		selector: retry.New[T](retry.Policy{MaxAttempts: 1}),
		base:     base,
		stop:     stop,
		state:    initialState[T](),
	}
}

// Options returns the effective options.
func (o *Orchestrator[T]) Options() Options {
	return o.opts
}

// Cache exposes the query cache for inspection.
func (o *Orchestrator[T]) Cache() *cache.FIFO[T] {
	return o.cache
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator[T]) Snapshot() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// UpdateInput records new input text. Input shorter than MinChars clears the
// suggestions immediately. Otherwise a changed query either resolves from
// the cache synchronously or arms the debounce timer.
func (o *Orchestrator[T]) UpdateInput(text string) {
	o.mutate(func() bool {
		o.state.Input = text
		o.state.Highlight = highlight.None

		query := ""
		if utf8.RuneCountInString(text) >= o.opts.MinChars {
			query = text
		} else {
			o.cancelLocked()
			o.state.Suggestions = []T{}
			o.state.Status = StatusIdle
			o.state.Err = nil
		}

		if query != o.state.Query {
			o.state.Query = query
			o.startQueryLocked()
		}
		return true
	})
}

// Clear resets the input and every derived field, cancelling pending work.
func (o *Orchestrator[T]) Clear() {
	o.mutate(func() bool {
		o.cancelLocked()
		rev := o.state.Revision
		o.state = initialState[T]()
		o.state.Revision = rev
		return true
	})
}

// MoveHighlight steps the highlight by delta with wrap-around.
func (o *Orchestrator[T]) MoveHighlight(delta int) {
	o.mutate(func() bool {
		return o.setHighlightLocked(highlight.Move(o.state.Highlight, delta, len(o.state.Suggestions)))
	})
}

// Navigate applies a navigation key to the highlight.
func (o *Orchestrator[T]) Navigate(direction highlight.Direction) {
	o.mutate(func() bool {
		return o.setHighlightLocked(highlight.Navigate(o.state.Highlight, direction, len(o.state.Suggestions)))
	})
}

// SetHighlightIndex sets the highlight directly. Indexes below -1 or past the
// end of the list are ignored.
func (o *Orchestrator[T]) SetHighlightIndex(idx int) {
	o.mutate(func() bool {
		return o.setHighlightLocked(highlight.Set(o.state.Highlight, idx, len(o.state.Suggestions)))
	})
}

// HighlightFirst moves the highlight to the first suggestion.
func (o *Orchestrator[T]) HighlightFirst() {
	o.Navigate(highlight.DirectionHome)
}

// HighlightLast moves the highlight to the last suggestion.
func (o *Orchestrator[T]) HighlightLast() {
	o.Navigate(highlight.DirectionEnd)
}

// SetSuggestions replaces the list directly. The status is left alone.
func (o *Orchestrator[T]) SetSuggestions(list []T) {
	o.mutate(func() bool {
		o.setSuggestionsLocked(list)
		return true
	})
}

// HandleSelection puts value into the input and, when a Select hook is set,
// replaces the suggestions with its result. The selection supersedes any
// pending query; the input change it makes does not start a new one.
// Without a Select hook it behaves exactly like UpdateInput(value).
func (o *Orchestrator[T]) HandleSelection(value string) {
	if o.hooks.Select == nil {
		o.UpdateInput(value)
		return
	}

	var (
		ctx   context.Context
		epoch uint64
	)

	o.mutate(func() bool {
		o.cancelLocked()
		o.state.Input = value
		o.state.Query = o.effectiveQuery(value)
		o.state.Highlight = highlight.None

		ctx, epoch = o.mintLocked()
		o.state.Status = StatusLoading
		o.state.Err = nil
		o.wg.Add(1)
		return true
	})

	if ctx == nil {
		return
	}

	go func() {
		defer o.wg.Done()
		items, err := o.selector.Execute(ctx, value, retry.Func[T](o.hooks.Select))
		o.finishSelection(epoch, value, items, err)
	}()
}

// SelectHighlighted selects the highlighted suggestion, if any.
func (o *Orchestrator[T]) SelectHighlighted() (T, bool) {
	item, ok := o.Snapshot().Highlighted()
	if ok {
		o.HandleSelection(o.hooks.Label(item))
	}
	return item, ok
}

// Close cancels the debounce timer and the in-flight request. Later results
// are dropped and further actions are ignored.
func (o *Orchestrator[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.debounce.Stop()
	o.cancelLocked()
	o.stop()
	o.log.Debug("Closed")
}

// Wait blocks until fetches started by this orchestrator have returned.
// Fetches that ignore their context keep Wait blocked.
func (o *Orchestrator[T]) Wait() {
	o.wg.Wait()
}

// mutate runs fn under the lock and publishes the result when fn reports a change.
func (o *Orchestrator[T]) mutate(fn func() bool) {
	o.mu.Lock()
	if o.closed || !fn() {
		o.mu.Unlock()
		return
	}
	o.state.Revision++
	snapshot := o.state.clone()
	o.mu.Unlock()

	o.notify(snapshot)
}

func (o *Orchestrator[T]) notify(snapshot State[T]) {
	if o.hooks.OnChange != nil {
		o.hooks.OnChange(snapshot)
	}
}

func (o *Orchestrator[T]) effectiveQuery(text string) string {
	if utf8.RuneCountInString(text) < o.opts.MinChars {
		return ""
	}
	return text
}

// startQueryLocked reacts to a changed effective query.
func (o *Orchestrator[T]) startQueryLocked() {
	o.cancelLocked()

	trimmed := strings.TrimSpace(o.state.Query)
	if trimmed == "" {
		o.state.Err = nil
		o.state.Status = restingStatus(len(o.state.Suggestions))
		return
	}

	key := cache.Key(trimmed)
	if list, ok := o.cache.Get(key); ok {
		o.log.Debug("Cache hit", "query", trimmed, "count", len(list))
		o.setSuggestionsLocked(list)
		o.state.Status = completedStatus(len(list))
		o.state.Err = nil
		return
	}

	o.state.Status = StatusDebouncing
	epoch := o.epoch
	o.debounce.Schedule(key, o.opts.Debounce, func() {
		o.fire(epoch, trimmed, key)
	})
}

// fire runs on the debounce timer goroutine.
func (o *Orchestrator[T]) fire(scheduled uint64, query, key string) {
	o.mu.Lock()
	if o.closed || scheduled != o.epoch {
		o.mu.Unlock()
		return
	}
	ctx, epoch := o.mintLocked()
	o.state.Status = StatusLoading
	o.state.Err = nil
	o.state.Revision++
	snapshot := o.state.clone()
	o.wg.Add(1)
	o.mu.Unlock()

	defer o.wg.Done()
	o.notify(snapshot)

	o.log.Debug("Fetching", "query", query, "epoch", epoch)
	items, err := o.fetcher.Execute(ctx, query, retry.Func[T](o.hooks.Fetch))
	o.finishFetch(epoch, query, key, items, err)
}

func (o *Orchestrator[T]) finishFetch(epoch uint64, query, key string, items []T, err error) {
	o.mutate(func() bool {
		if !o.currentLocked(epoch) {
			o.log.Debug("Dropping stale result", "query", query, "epoch", epoch, "kind", KindCancelled)
			return false
		}
		o.releaseLocked()

		if err != nil {
			if IsCancelled(err) {
				return false
			}
			o.state.Err = newError(KindFetchFailed, query, err)
			o.state.Status = StatusError
			o.setSuggestionsLocked(nil)
			o.log.Warn("Fetch failed", "query", query, "err", err)
			return true
		}

		o.cache.Put(key, items)
		o.setSuggestionsLocked(items)
		o.state.Status = completedStatus(len(items))
		o.state.Err = nil
		return true
	})
}

func (o *Orchestrator[T]) finishSelection(epoch uint64, value string, items []T, err error) {
	o.mutate(func() bool {
		if !o.currentLocked(epoch) {
			o.log.Debug("Dropping stale selection result", "value", value, "kind", KindCancelled)
			return false
		}
		o.releaseLocked()

		if err != nil {
			if IsCancelled(err) {
				return false
			}
			o.state.Err = newError(KindSelectionFetchFailed, value, err)
			o.state.Status = StatusError
			o.setSuggestionsLocked(nil)
			o.log.Warn("Selection fetch failed", "value", value, "err", err)
			return true
		}

		o.setSuggestionsLocked(items)
		o.state.Highlight = highlight.None
		o.state.Status = completedStatus(len(items))
		o.state.Err = nil
		return true
	})
}

// mintLocked starts a new epoch with its own request context.
func (o *Orchestrator[T]) mintLocked() (context.Context, uint64) {
	o.epoch++
	ctx, cancel := context.WithCancel(o.base)
	o.cancel = cancel
	return ctx, o.epoch
}

// cancelLocked disarms the debounce timer and invalidates the current epoch.
func (o *Orchestrator[T]) cancelLocked() {
	o.debounce.CancelPending()
	o.epoch++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// releaseLocked frees the context of a finished request.
func (o *Orchestrator[T]) releaseLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator[T]) currentLocked(epoch uint64) bool {
	return !o.closed && epoch == o.epoch
}

func (o *Orchestrator[T]) setSuggestionsLocked(list []T) {
	if list == nil {
		list = []T{}
	}
	o.state.Suggestions = slices.Clone(list)
	o.state.Highlight = highlight.Clamp(o.state.Highlight, len(o.state.Suggestions))
}

func (o *Orchestrator[T]) setHighlightLocked(idx int) bool {
	if idx == o.state.Highlight {
		return false
	}
	o.state.Highlight = idx
	return true
}

