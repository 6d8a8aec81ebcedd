package autocomplete

import (
	"context"
	"time"

	"github.com/bastiangx/typeahead/pkg/cache"
	"github.com/bastiangx/typeahead/pkg/retry"
	"github.com/charmbracelet/log"
)

// Defaults for Options.
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultMinChars    = 1
	DefaultMaxCache    = cache.DefaultMaxEntries
	DefaultMaxAttempts = retry.DefaultMaxAttempts
	DefaultBackoffBase = retry.DefaultBackoffBase
)

// Options configures an Orchestrator. Use DefaultOptions() as the base.
type Options struct {
	// Debounce is the quiet period after the last keystroke before a fetch starts.
	Debounce time.Duration

	// MinChars is the input length, in runes, below which no query is made.
	MinChars int

	// MaxCache bounds the number of cached queries.
	MaxCache int

	// MaxAttempts and BackoffBase form the retry policy of the primary fetch.
	MaxAttempts int
	BackoffBase time.Duration

	// Logger defaults to a prefixed logger at the global level.
	Logger *log.Logger
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Debounce:    DefaultDebounce,
		MinChars:    DefaultMinChars,
		MaxCache:    DefaultMaxCache,
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
	}
}

// normalize replaces out of range values. Zero debounce and zero min chars
// are meaningful and kept.
func (o Options) normalize() Options {
	if o.Debounce < 0 {
		o.Debounce = 0
	}
	if o.MinChars < 0 {
		o.MinChars = 0
	}
	if o.MaxCache <= 0 {
		o.MaxCache = DefaultMaxCache
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BackoffBase < 0 {
		o.BackoffBase = 0
	}
	return o
}

// Policy returns the retry policy described by the options.
func (o Options) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: o.MaxAttempts,
		BackoffBase: o.BackoffBase,
	}
}

// FetchFunc returns the suggestions for a trimmed query. It must honour ctx:
// once ctx is done its result is ignored.
type FetchFunc[T any] func(ctx context.Context, query string) ([]T, error)

// SelectFunc returns a replacement suggestion list after value was chosen.
type SelectFunc[T any] func(ctx context.Context, value string) ([]T, error)

// Hooks are the collaborators of an Orchestrator. Only Fetch is required.
type Hooks[T any] struct {
	Fetch  FetchFunc[T]
	Select SelectFunc[T]

	// OnChange receives a snapshot after every state change. It is called
	// without locks held, possibly from a timer or fetch goroutine, so
	// snapshots may arrive out of order; compare State.Revision.
	OnChange func(State[T])

	// Label renders an item as the text placed in the input on selection.
	// Defaults to fmt.Sprint.
	Label func(T) string
}
