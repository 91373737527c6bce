package repl

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/melody"
	"github.com/ava12/melody/compiler"
	"github.com/ava12/melody/parser"
)

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func press(m tea.Model, key tea.KeyType) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: key})
}

func TestInitialSource(t *testing.T) {
	m := New("<start>; capture n { some of <digit> }; <end>", compiler.Options{})
	assert.NoError(t, m.Err())
	assert.Equal(t, `^(?P<n>\d+)$`, m.Pattern())
	assert.NotNil(t, m.Init())

	view := m.View()
	assert.Contains(t, view, `^(?P<n>\d+)$`)
	assert.Contains(t, view, "tab: switch field")
}

func TestTypingRecompiles(t *testing.T) {
	var m tea.Model = New("", compiler.Options{})
	assert.Empty(t, m.(Model).Pattern())
	assert.Contains(t, m.View(), "no top-level pattern")

	m = typeText(m, "some of <digit")
	assert.Error(t, m.(Model).Err())

	m = typeText(m, ">")
	require.NoError(t, m.(Model).Err())
	assert.Equal(t, `\d+`, m.(Model).Pattern())
}

func TestSampleInput(t *testing.T) {
	var m tea.Model = New("<start>; capture year { 4 of <digit> }; <end>", compiler.Options{})
	m, _ = press(m, tea.KeyTab)

	m = typeText(m, "2024")
	matched, groups := m.(Model).Match()
	assert.True(t, matched)
	assert.Equal(t, map[string]string{"year": "2024"}, groups)
	assert.Contains(t, m.View(), `match year="2024"`)

	m = typeText(m, "x")
	matched, _ = m.(Model).Match()
	assert.False(t, matched)
	assert.Contains(t, m.View(), "no match")

	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "; 'x'")
	assert.Equal(t, `^(?P<year>\d{4})$x`, m.(Model).Pattern())
}

func TestErrorView(t *testing.T) {
	m := New("either { 'a' }", compiler.Options{})
	e := m.Err()
	require.Error(t, e)
	assert.Contains(t, m.View(), "error[")
	assert.Contains(t, m.View(), "either { 'a' }")

	assert.True(t, melody.HasCode(e, parser.AlternativesError))

	matched, _ := m.Match()
	assert.False(t, matched)
}

func TestQuit(t *testing.T) {
	var m tea.Model = New("'a'", compiler.Options{})
	_, cmd := press(m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWindowSize(t *testing.T) {
	var m tea.Model = New("'a'", compiler.Options{})
	m, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Nil(t, cmd)
	assert.Equal(t, 92, m.(Model).input.Width)
}
