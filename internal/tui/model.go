// Package tui is an interactive bubbletea front end for the orchestrator.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/bastiangx/typeahead/pkg/highlight"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	primary = lipgloss.Color("#7C3AED")
	muted   = lipgloss.Color("#6B7280")

	promptStyle  = lipgloss.NewStyle().Foreground(primary).Bold(true)
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	activeStyle  = lipgloss.NewStyle().PaddingLeft(1).Foreground(primary).Bold(true)
	faintStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(primary)
)

const helpLine = "↑/↓ tab move · home/end jump · enter select · esc clear · ctrl+c quit"

type (
	// Suggestions is the orchestrator type driven by the TUI.
	Suggestions = autocomplete.Orchestrator[suggest.Suggestion]
	snapshot    = autocomplete.State[suggest.Suggestion]
)

// stateMsg carries a snapshot published from an orchestrator goroutine.
type stateMsg struct {
	state snapshot
}

// Notifier forwards orchestrator snapshots to a running program. Use its
// OnChange method as the orchestrator's OnChange hook.
type Notifier struct {
	mu sync.Mutex
	p  *tea.Program
}

// OnChange sends s to the program, if one is attached. It never blocks the
// caller, which may be the program's own update loop.
func (n *Notifier) OnChange(s snapshot) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p != nil {
		go p.Send(stateMsg{state: s})
	}
}

func (n *Notifier) attach(p *tea.Program) {
	n.mu.Lock()
	n.p = p
	n.mu.Unlock()
}

// Model is the bubbletea model: a text input over the suggestion list.
type Model struct {
	ac      *Suggestions
	input   textinput.Model
	spinner spinner.Model
	state   snapshot
	limit   int
}

// New returns a focused model driving ac. limit bounds the rows shown.
func New(ac *Suggestions, limit int) Model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("› ")
	ti.Placeholder = "start typing…"
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ac:      ac,
		input:   ti,
		spinner: sp,
		state:   ac.Snapshot(),
		limit:   limit,
	}
}

// Run starts the program until the user quits or ctx is done.
func Run(ctx context.Context, ac *Suggestions, n *Notifier, limit int) error {
	p := tea.NewProgram(New(ac, limit), tea.WithContext(ctx))
	n.attach(p)
	defer n.attach(nil)

	_, err := p.Run()
	return err
}

// Init satisfies tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update satisfies tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if msg.state.Revision <= m.state.Revision {
			return m, nil
		}
		wasLoading := m.state.Loading()
		m.state = msg.state
		if m.state.Loading() && !wasLoading {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.input.SetValue("")
		m.ac.Clear()
		return m.sync()
	case tea.KeyUp, tea.KeyShiftTab:
		m.ac.Navigate(highlight.DirectionUp)
		return m.sync()
	case tea.KeyDown, tea.KeyTab:
		m.ac.Navigate(highlight.DirectionDown)
		return m.sync()
	case tea.KeyHome:
		m.ac.HighlightFirst()
		return m.sync()
	case tea.KeyEnd:
		m.ac.HighlightLast()
		return m.sync()
	case tea.KeyEnter:
		if item, ok := m.ac.SelectHighlighted(); ok {
			m.input.SetValue(suggest.Label(item))
			m.input.CursorEnd()
		}
		return m.sync()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.ac.UpdateInput(value)
	}
	next, syncCmd := m.sync()
	return next, tea.Batch(cmd, syncCmd)
}

// sync pulls the state changed synchronously by the last action.
func (m Model) sync() (tea.Model, tea.Cmd) {
	s := m.ac.Snapshot()
	if s.Revision <= m.state.Revision {
		return m, nil
	}
	return m.Update(stateMsg{state: s})
}

// View satisfies tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch m.state.View() {
	case autocomplete.ViewLoading:
		b.WriteString(m.spinner.View() + faintStyle.Render(" searching…"))
	case autocomplete.ViewError:
		b.WriteString(errorStyle.Render(m.state.Err.Message()))
	case autocomplete.ViewNoResults:
		b.WriteString(faintStyle.Render(fmt.Sprintf("no suggestions for %q", strings.TrimSpace(m.state.Query))))
	case autocomplete.ViewList:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(faintStyle.Render(helpLine))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderList() string {
	rows := m.state.Suggestions
	if m.limit > 0 && len(rows) > m.limit {
		rows = rows[:m.limit]
	}
	lines := make([]string, 0, len(rows)+1)
	if len(rows) > 0 && rows[0].WasCorrected {
		lines = append(lines, faintStyle.Render(fmt.Sprintf("showing results for %q", rows[0].CorrectedPrefix)))
	}
	for i, s := range rows {
		if i == m.state.Highlight {
			lines = append(lines, activeStyle.Render("▸ "+s.Word))
			continue
		}
		lines = append(lines, itemStyle.Render(s.Word))
	}
	return strings.Join(lines, "\n")
}
