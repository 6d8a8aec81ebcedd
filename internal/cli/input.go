// Package cli is a line driven front end for debugging the autocomplete
// orchestrator in a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/bastiangx/typeahead/pkg/highlight"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	wordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const help = `commands:
  <text>     replace the input with text
  :up :down  move the highlight
  :home :end jump to the first or last suggestion
  :pick [n]  select suggestion n, or the highlighted one
  :clear     clear the input
  :cache [p] show cached queries, optionally only those starting with p
  :quit      exit`

// InputHandler reads lines from in: plain lines replace the input text,
// lines starting with ':' are commands. State changes are printed to out.
type InputHandler struct {
	ac        *autocomplete.Orchestrator[suggest.Suggestion]
	in        io.Reader
	out       io.Writer
	maxPrefix int
	noFilter  bool

	mu      sync.Mutex
	lastRev uint64
}

// NewInputHandler creates a handler. Attach an orchestrator before Start.
func NewInputHandler(in io.Reader, out io.Writer, maxPrefix int, noFilter bool) *InputHandler {
	return &InputHandler{
		in:        in,
		out:       out,
		maxPrefix: maxPrefix,
		noFilter:  noFilter,
	}
}

// Attach sets the orchestrator driven by the handler. Its OnChange hook
// should be h.Render.
func (h *InputHandler) Attach(ac *autocomplete.Orchestrator[suggest.Suggestion]) {
	h.ac = ac
}

// Start runs the input loop until :quit, the end of input, or ctx is done.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, "typeahead CLI, :help for commands")

	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if h.handleLine(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// handleLine processes one line and reports whether the loop should stop.
func (h *InputHandler) handleLine(line string) bool {
	if !strings.HasPrefix(line, ":") {
		h.updateInput(line)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":up":
		h.ac.Navigate(highlight.DirectionUp)
	case ":down":
		h.ac.Navigate(highlight.DirectionDown)
	case ":home":
		h.ac.HighlightFirst()
	case ":end":
		h.ac.HighlightLast()
	case ":pick":
		h.pick(fields[1:])
	case ":clear":
		h.ac.Clear()
	case ":cache":
		h.printCache(fields[1:])
	case ":help":
		fmt.Fprintln(h.out, help)
	case ":quit", ":q":
		return true
	default:
		log.Errorf("Unknown command: %s", fields[0])
	}
	return false
}

func (h *InputHandler) updateInput(text string) {
	if utf8.RuneCountInString(text) > h.maxPrefix {
		log.Errorf("Prefix too long: %s", text)
		return
	}
	if !h.noFilter && strings.TrimSpace(text) != "" && !utils.IsValidInput(strings.TrimSpace(text)) {
		log.Warnf("Ignoring input: '%s'", text)
		return
	}
	h.ac.UpdateInput(text)
}

func (h *InputHandler) pick(args []string) {
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			log.Errorf("Invalid suggestion number: %s", args[0])
			return
		}
		if n < 1 || !highlight.Valid(n-1, len(h.ac.Snapshot().Suggestions)) {
			log.Errorf("No suggestion numbered %d", n)
			return
		}
		h.ac.SetHighlightIndex(n - 1)
	}
	item, ok := h.ac.SelectHighlighted()
	if !ok {
		log.Warn("Nothing highlighted")
		return
	}
	log.Debugf("Selected %s", item.Word)
}

func (h *InputHandler) printCache(args []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cache := h.ac.Cache()
	stats := cache.Stats()
	fmt.Fprintf(h.out, "cache: %d/%d entries, %d hits, %d misses, %d evictions\n",
		stats["entries"], stats["maxEntries"], stats["hits"], stats["misses"], stats["evictions"])
	keys := cache.Keys()
	if len(args) > 0 {
		keys = cache.WithPrefix(strings.ToLower(args[0]))
	}
	for _, key := range keys {
		fmt.Fprintf(h.out, "  %s\n", dimStyle.Render(key))
	}
}

// Render prints a state snapshot. Snapshots older than the last one
// printed are ignored, and pending debounces print nothing.
func (h *InputHandler) Render(s autocomplete.State[suggest.Suggestion]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.Revision <= h.lastRev {
		return
	}
	h.lastRev = s.Revision
	if s.Status == autocomplete.StatusDebouncing {
		return
	}

	switch s.View() {
	case autocomplete.ViewLoading:
		fmt.Fprintln(h.out, dimStyle.Render(fmt.Sprintf("loading '%s'...", strings.TrimSpace(s.Query))))
	case autocomplete.ViewError:
		fmt.Fprintln(h.out, errorStyle.Render(s.Err.Message()))
		log.Debug("Fetch error", "err", s.Err)
	case autocomplete.ViewNoResults:
		fmt.Fprintf(h.out, "No suggestions for '%s'\n", strings.TrimSpace(s.Query))
	case autocomplete.ViewList:
		for i, sg := range s.Suggestions {
			marker, style := " ", wordStyle
			if i == s.Highlight {
				marker, style = ">", activeStyle
			}
			fmt.Fprintf(h.out, "%s%2d. %-30s (freq: %8s)\n", marker, i+1, style.Render(sg.Word), utils.FormatWithCommas(sg.Frequency))
		}
	}
}
