package lexer

import (
	"github.com/ava12/melody/source"
)

// Kind is a token kind.
type Kind int

const (
	Eof          Kind = iota // end of source
	Keyword                  // let, either, match, capture, option, some, any, of, lazy, not, to, over
	Ident                    // named reference: .name
	String                   // "quoted" or 'quoted' literal
	ClassLiteral             // single character range: a to z
	RawClass                 // `raw` pattern text
	Punct                    // { } ; =
	BuiltinClass             // <word>, <digit>, ...
	Anchor                   // <start>, <end>
	Number                   // decimal repetition count
	Name                     // bare word, e.g. capture group name
	errorKind
)

var kindNames = [...]string{
	Eof:          "end of source",
	Keyword:      "keyword",
	Ident:        "reference",
	String:       "string",
	ClassLiteral: "character range",
	RawClass:     "raw pattern",
	Punct:        "punctuation",
	BuiltinClass: "character class",
	Anchor:       "anchor",
	Number:       "number",
	Name:         "name",
	errorKind:    "-error-",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Token is an immutable lexeme.
// Text contains the lexeme as written, Value contains its meaning:
// decoded string content, raw pattern without backticks, reference or class name without decorations.
type Token struct {
	kind  Kind
	text  string
	value string
	pos   source.Pos
}

// NewToken creates new token.
func NewToken(kind Kind, text, value string, pos source.Pos) *Token {
	return &Token{kind, text, value, pos}
}

// EofToken creates end-of-source token positioned after the last byte of s.
func EofToken(s *source.Source) *Token {
	return &Token{kind: Eof, pos: source.NewPos(s, s.Len())}
}

func (t *Token) Kind() Kind {
	return t.kind
}

func (t *Token) Text() string {
	return t.text
}

func (t *Token) Value() string {
	return t.value
}

func (t *Token) Pos() source.Pos {
	return t.pos
}

func (t *Token) SourceName() string {
	return t.pos.SourceName()
}

func (t *Token) Line() int {
	return t.pos.Line()
}

func (t *Token) Col() int {
	return t.pos.Col()
}

func (t *Token) Offset() int {
	return t.pos.Offset()
}

// Is tells whether token has given kind and, if text is not empty, given text.
func (t *Token) Is(kind Kind, text string) bool {
	return t.kind == kind && (text == "" || t.text == text)
}

// Describe returns human-readable token description for error messages.
func (t *Token) Describe() string {
	if t.kind == Eof {
		return t.kind.String()
	}
	return t.kind.String() + " " + quote(t.text)
}

func quote(s string) string {
	const maxLen = 24
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return "\"" + s + "\""
}
