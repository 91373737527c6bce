// Package repl implements an interactive terminal editor that recompiles a pattern description on every change.
package repl

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ava12/melody/compiler"
	"github.com/ava12/melody/internal/diag"
	"github.com/ava12/melody/source"
)

const sourceName = "repl"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	patternStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

type focus int

const (
	focusSource focus = iota
	focusInput
)

// Model is bubbletea model of the interactive editor: description on top, sample input below.
type Model struct {
	source  textarea.Model
	input   textinput.Model
	focus   focus
	opts    compiler.Options
	printer *diag.Printer

	compiled string
	result   *compiler.Result
	re       *regexp.Regexp
	err      error
}

// New creates a model with initial source text, which may be empty.
func New(initial string, opts compiler.Options) Model {
	ta := textarea.New()
	ta.Placeholder = "<start>; some of <word>; <end>;"
	ta.ShowLineNumbers = true
	ta.SetWidth(72)
	ta.SetHeight(8)
	ta.SetValue(initial)
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "sample input"
	ti.Prompt = "> "
	ti.Width = 68

	m := Model{
		source:  ta,
		input:   ti,
		opts:    opts,
		printer: diag.New(false),
	}
	m.recompile()
	return m
}

// Init starts cursor blinking.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles keys and window resizing, recompiling description when it changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab":
			return m.toggleFocus(), nil
		}

	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.source.SetWidth(msg.Width - 4)
			m.input.Width = msg.Width - 8
		}
		return m, nil
	}

	if m.focus == focusSource {
		m.source, cmd = m.source.Update(msg)
		m.recompile()
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) toggleFocus() Model {
	if m.focus == focusSource {
		m.focus = focusInput
		m.source.Blur()
		m.input.Focus()
	} else {
		m.focus = focusSource
		m.input.Blur()
		m.source.Focus()
	}
	return m
}

func (m *Model) recompile() {
	text := m.source.Value()
	if text == m.compiled && (m.result != nil || m.err != nil) {
		return
	}

	m.compiled = text
	m.result, m.err = compiler.Compile(sourceName, text, m.opts)
	m.re = nil
	if m.err == nil && m.result.HasRoot() {
		m.re, m.err = m.result.Regexp()
	}
}

// Pattern returns the current root pattern or empty string.
func (m Model) Pattern() string {
	if m.result == nil {
		return ""
	}
	return m.result.Pattern
}

// Err returns the current compilation error.
func (m Model) Err() error {
	return m.err
}

// Match tells whether the current sample input matches the root pattern.
func (m Model) Match() (matched bool, groups map[string]string) {
	if m.re == nil {
		return false, nil
	}

	sub := m.re.FindStringSubmatch(m.input.Value())
	if sub == nil {
		return false, nil
	}
	for i, name := range m.re.SubexpNames() {
		if name != "" {
			if groups == nil {
				groups = map[string]string{}
			}
			groups[name] = sub[i]
		}
	}
	return true, groups
}

// View renders editors, resulting pattern, and match or diagnostics.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("melody") + "\n\n")
	sb.WriteString(m.source.View() + "\n\n")

	switch {
	case m.err != nil:
		rendered := m.printer.Render(m.err, source.NewString(sourceName, m.compiled))
		sb.WriteString(errorStyle.Render(strings.TrimRight(rendered, "\n")) + "\n")
	case m.result.HasRoot():
		sb.WriteString(labelStyle.Render("pattern ") + patternStyle.Render(m.result.Pattern) + "\n")
	default:
		sb.WriteString(labelStyle.Render("no top-level pattern") + "\n")
	}
	if m.result != nil {
		for _, name := range m.result.Order {
			sb.WriteString(labelStyle.Render("."+name+" ") + m.result.Definitions[name] + "\n")
		}
	}

	sb.WriteString("\n" + m.input.View() + "\n")
	if m.re != nil && m.input.Value() != "" {
		matched, groups := m.Match()
		if matched {
			sb.WriteString(patternStyle.Render("match") + formatGroups(groups) + "\n")
		} else {
			sb.WriteString(errorStyle.Render("no match") + "\n")
		}
	}

	sb.WriteString("\n" + helpStyle.Render("tab: switch field • esc: quit") + "\n")
	return sb.String()
}

func formatGroups(groups map[string]string) string {
	if len(groups) == 0 {
		return ""
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%q", name, groups[name])
	}
	return " " + strings.Join(parts, " ")
}

// Run starts interactive session reading keys from in and drawing to out.
func Run(initial string, opts compiler.Options, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(initial, opts), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("repl run failed: %w", err)
	}
	return nil
}
