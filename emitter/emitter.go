// Package emitter serializes resolved pattern trees to Go (RE2) regular expressions.
package emitter

import (
	"regexp"
	"regexp/syntax"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ava12/melody"
	"github.com/ava12/melody/ast"
)

// Error codes used by emitter:
const (
	// UnresolvedError indicates a reference left in a tree passed to emitter.
	UnresolvedError = melody.EmitErrors + iota

	// InvalidPatternError indicates a raw pattern or resulting expression rejected by regexp parser.
	InvalidPatternError

	// UnknownNodeError indicates unsupported node type or unknown builtin class.
	UnknownNodeError
)

const invalidPatternMsg = "invalid pattern %q: %s"

type place int

const (
	topContext place = iota
	sequenceContext
	alternativeContext
	quantifiedContext
)

var builtins = map[string][2]string{
	"word":         {`\w`, `\W`},
	"digit":        {`\d`, `\D`},
	"whitespace":   {`\s`, `\S`},
	"char":         {`.`, ""},
	"space":        {` `, `[^ ]`},
	"newline":      {`\n`, `[^\n]`},
	"tab":          {`\t`, `[^\t]`},
	"return":       {`\r`, `[^\r]`},
	"feed":         {`\f`, `[^\f]`},
	"null":         {`\x00`, `[^\x00]`},
	"vertical":     {`\v`, `[^\v]`},
	"alphabetic":   {`[a-zA-Z]`, `[^a-zA-Z]`},
	"alphanumeric": {`[a-zA-Z0-9]`, `[^a-zA-Z0-9]`},
	"boundary":     {`\b`, `\B`},
}

// Emit serializes a reference-free tree. The result is validated with regexp/syntax,
// a rejected result is reported at the position of n.
// Returns empty string for nil tree.
func Emit(n ast.Node) (string, error) {
	if n == nil {
		return "", nil
	}

	var sb strings.Builder
	if e := emit(&sb, n, topContext); e != nil {
		return "", e
	}

	res := sb.String()
	if _, e := syntax.Parse(res, syntax.Perl); e != nil {
		if p := n.Pos(); p.IsValid() {
			return "", melody.FormatErrorPos(p, InvalidPatternError, invalidPatternMsg, res, e.Error())
		}
		return "", melody.FormatError(InvalidPatternError, invalidPatternMsg, res, e.Error())
	}
	return res, nil
}

// MustEmit is like Emit but panics on error.
func MustEmit(n ast.Node) string {
	res, e := Emit(n)
	if e != nil {
		panic(e)
	}
	return res
}

// Validate checks that pattern is accepted by Go regexp parser.
func Validate(pattern string) error {
	if _, e := syntax.Parse(pattern, syntax.Perl); e != nil {
		return melody.FormatError(InvalidPatternError, invalidPatternMsg, pattern, e.Error())
	}
	return nil
}

func emit(sb *strings.Builder, n ast.Node, ctx place) error {
	switch n := n.(type) {
	case *ast.Literal:
		quoted := regexp.QuoteMeta(n.Text)
		if ctx == quantifiedContext && utf8.RuneCountInString(n.Text) != 1 {
			writeGroup(sb, quoted)
		} else {
			sb.WriteString(quoted)
		}

	case *ast.CharClass:
		return emitClass(sb, n, ctx)

	case *ast.Anchor:
		text := "^"
		if n.Kind == ast.End {
			text = "$"
		}
		if ctx == quantifiedContext {
			writeGroup(sb, text)
		} else {
			sb.WriteString(text)
		}

	case *ast.Sequence:
		if len(n.Children) == 1 {
			return emit(sb, n.Children[0], ctx)
		}

		if ctx == quantifiedContext {
			sb.WriteString("(?:")
		}
		for _, c := range n.Children {
			if e := emit(sb, c, sequenceContext); e != nil {
				return e
			}
		}
		if ctx == quantifiedContext {
			sb.WriteByte(')')
		}

	case *ast.Alternation:
		sb.WriteString("(?:")
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte('|')
			}
			if e := emit(sb, c, alternativeContext); e != nil {
				return e
			}
		}
		sb.WriteByte(')')

	case *ast.Quantified:
		return emitQuantified(sb, n, ctx)

	case *ast.Group:
		switch {
		case !n.Capturing:
			sb.WriteString("(?:")
		case n.Name != "":
			sb.WriteString("(?P<" + n.Name + ">")
		default:
			sb.WriteByte('(')
		}
		if e := emit(sb, n.Child, topContext); e != nil {
			return e
		}
		sb.WriteByte(')')

	case *ast.Reference:
		return melody.FormatErrorPos(n.Pos(), UnresolvedError, "unresolved reference .%s", n.Name)

	default:
		return melody.FormatError(UnknownNodeError, "unsupported node %s", ast.Describe(n))
	}

	return nil
}

func writeGroup(sb *strings.Builder, text string) {
	sb.WriteString("(?:")
	sb.WriteString(text)
	sb.WriteByte(')')
}

func emitClass(sb *strings.Builder, n *ast.CharClass, ctx place) error {
	if n.Raw == "" {
		forms, found := builtins[n.Builtin]
		text := forms[0]
		if n.Negated {
			text = forms[1]
		}
		if !found || text == "" {
			return melody.FormatErrorPos(n.Pos(), UnknownNodeError, "unsupported %s", ast.Describe(n))
		}

		sb.WriteString(text)
		return nil
	}

	re, e := syntax.Parse(n.Raw, syntax.Perl)
	if e != nil {
		return melody.FormatErrorPos(n.Pos(), InvalidPatternError, "invalid raw pattern %q: %s", n.Raw, e.Error())
	}

	bar, flags := scanTopLevel(n.Raw)
	var needsGroup bool
	switch ctx {
	case quantifiedContext:
		needsGroup = !isAtom(re) || bar || flags
	case sequenceContext:
		needsGroup = bar || flags
	case alternativeContext:
		needsGroup = flags
	}

	if needsGroup {
		writeGroup(sb, n.Raw)
	} else {
		sb.WriteString(n.Raw)
	}
	return nil
}

// isAtom tells whether a quantifier may be appended to parsed expression text as is.
func isAtom(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpLiteral:
		return len(re.Rune) == 1 && re.Flags&syntax.FoldCase == 0
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL, syntax.OpCapture:
		return true
	default:
		return false
	}
}

// scanTopLevel tells whether the pattern contains "|" or a flag setting group like "(?i)"
// outside of groups and bracket expressions. Both would affect the enclosing expression.
func scanTopLevel(pattern string) (bar, flags bool) {
	depth := 0
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			} else if c == '[' && i+1 < len(pattern) && pattern[i+1] == ':' {
				if end := strings.Index(pattern[i+2:], ":]"); end >= 0 {
					i += end + 3
				}
			}
		case c == '[':
			inClass = true
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				i++
			}
			if i+1 < len(pattern) && pattern[i+1] == ']' {
				i++
			}
		case c == '(':
			if depth == 0 && isFlagGroup(pattern[i+1:]) {
				flags = true
			}
			depth++
		case c == ')':
			depth--
		case c == '|' && depth == 0:
			bar = true
		}
	}
	return bar, flags
}

// isFlagGroup tells whether text following "(" is a flag setting group with no body: "?i)", "?-s)", etc.
func isFlagGroup(text string) bool {
	if len(text) < 2 || text[0] != '?' {
		return false
	}
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case 'i', 'm', 's', 'U', '-':
		case ')':
			return i > 1
		default:
			return false
		}
	}
	return false
}
