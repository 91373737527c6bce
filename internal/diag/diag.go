// Package diag renders compilation errors for terminal output.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/ava12/melody"
	"github.com/ava12/melody/internal/config"
	"github.com/ava12/melody/source"
)

// ColorEnabled resolves color mode for output file: "always", "never", or "auto" (colored on a terminal).
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Printer renders diagnostics, optionally colored.
type Printer struct {
	color  bool
	header lipgloss.Style
	code   lipgloss.Style
	gutter lipgloss.Style
	caret  lipgloss.Style
	note   lipgloss.Style
}

// New creates a Printer. color enables ANSI styling.
func New(color bool) *Printer {
	return &Printer{
		color:  color,
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		code:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		gutter: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		caret:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		note:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Errors flattens err to a list of *melody.Error, the list is empty for foreign errors.
func Errors(err error) []*melody.Error {
	var list melody.ErrorList
	if errors.As(err, &list) {
		return list
	}
	if me, ok := melody.AsError(err); ok {
		return []*melody.Error{me}
	}
	return nil
}

// Render formats err. src is used to quote offending lines and may be nil.
func (p *Printer) Render(err error, src *source.Source) string {
	if err == nil {
		return ""
	}

	errs := Errors(err)
	if len(errs) == 0 {
		return p.style(p.header, "error") + ": " + err.Error() + "\n"
	}

	var sb strings.Builder
	for _, me := range errs {
		p.renderOne(&sb, me, src)
	}
	return sb.String()
}

// Fprint writes rendered err to w.
func (p *Printer) Fprint(w io.Writer, err error, src *source.Source) error {
	_, e := io.WriteString(w, p.Render(err, src))
	return e
}

func (p *Printer) renderOne(sb *strings.Builder, me *melody.Error, src *source.Source) {
	sb.WriteString(p.style(p.header, "error"))
	sb.WriteString(p.style(p.code, "["+strconv.Itoa(me.Code)+"]"))
	sb.WriteString(": ")
	sb.WriteString(me.Message)
	sb.WriteByte('\n')

	if src != nil && me.Line > 0 && (me.SourceName == "" || me.SourceName == src.Name()) {
		line := src.Line(me.Line)
		if line != nil {
			num := strconv.Itoa(me.Line)
			pad := strings.Repeat(" ", len(num))
			sb.WriteString(p.style(p.gutter, pad+" |") + "\n")
			fmt.Fprintf(sb, "%s %s\n", p.style(p.gutter, num+" |"), line)
			fmt.Fprintf(sb, "%s %s%s\n", p.style(p.gutter, pad+" |"), caretPrefix(string(line), me.Col), p.style(p.caret, "^"))
		}
	}

	if me.Expected != "" {
		fmt.Fprintf(sb, "  %s expected %s", p.style(p.note, "note:"), me.Expected)
		if me.Found != "" {
			fmt.Fprintf(sb, ", found %s", me.Found)
		}
		sb.WriteByte('\n')
	}
}

// caretPrefix returns blanks aligning a caret under 1-based rune column col, tabs are kept.
func caretPrefix(line string, col int) string {
	var sb strings.Builder
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		i++
	}
	for ; i < col; i++ {
		sb.WriteByte(' ')
	}
	return sb.String()
}
