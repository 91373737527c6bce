// Package lexer defines lexical analyzer for pattern descriptions.
package lexer

import (
	"bytes"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/ava12/melody"
	"github.com/ava12/melody/internal/bmap"
	"github.com/ava12/melody/source"
)

// Error codes used by lexer:
const (
	// WrongCharError indicates that lexer cannot fetch any token at current position.
	// Error message contains the rune at current source position.
	WrongCharError = melody.LexicalErrors + iota

	// UnterminatedError indicates string literal, raw pattern, or block comment without closing delimiter.
	UnterminatedError

	// BadEscapeError indicates incorrect escape sequence in double-quoted string.
	BadEscapeError

	// UnknownClassError indicates unknown <name> character class or anchor.
	UnknownClassError
)

// TokenType describes token kind for specific capturing group of regular expression.
type TokenType struct {
	Kind Kind
	Name string
}

// Lexer performs lexical analysis of a source using regexp.Regexp.
// Lexer itself is immutable, stateless, and safe for concurrent use.
// Each token kind that may be returned by lexer maps to its own regexp capturing group index.
// A match containing no captured groups is treated as insignificant lexeme (whitespace or comment),
// in this case lexer tries to fetch a token again at new position.
// Every byte of source must belong to some lexeme.
type Lexer struct {
	types []TokenType
	re    *regexp.Regexp
}

// New creates new Lexer.
// Each n-th element of types describes token kind for (n+1)-th regexp capturing group.
// A group that has no description is treated as broken lexeme.
func New(re *regexp.Regexp, types []TokenType) *Lexer {
	ts := make([]TokenType, len(types))
	copy(ts, types)
	return &Lexer{types: ts, re: re}
}

func wrongCharError(src *source.Source, pos int) *melody.Error {
	r, _ := utf8.DecodeRune(src.Content()[pos:])
	return melody.FormatErrorPos(source.NewPos(src, pos), WrongCharError, "wrong char %q (u+%x)", r, r)
}

func (l *Lexer) matchToken(src *source.Source, pos int) (*Token, int, error) {
	content := src.Content()[pos:]
	match := l.re.FindSubmatchIndex(content)
	if len(match) == 0 || match[0] != 0 || match[1] <= match[0] {
		return nil, 0, wrongCharError(src, pos)
	}

	for i := 2; i < len(match); i += 2 {
		if match[i] < 0 || match[i+1] < 0 {
			continue
		}

		sp := source.NewPos(src, pos+match[i])
		text := string(content[match[i]:match[i+1]])
		index := (i >> 1) - 1
		if index >= len(l.types) || l.types[index].Kind == errorKind {
			return nil, 0, melody.FormatErrorPos(sp, UnterminatedError, "unterminated %s", describeBroken(text))
		}

		return NewToken(l.types[index].Kind, text, text, sp), match[1], nil
	}

	return nil, match[1], nil
}

// Next fetches token starting at byte offset pos.
// Returns the token and the offset of the next lexeme, EoF token if pos is at the end of source.
func (l *Lexer) Next(src *source.Source, pos int) (*Token, int, error) {
	for {
		if pos >= src.Len() {
			return EofToken(src), pos, nil
		}

		tok, advance, e := l.matchToken(src, pos)
		if e != nil {
			return nil, pos, e
		}

		pos += advance
		if tok != nil {
			return tok, pos, nil
		}
	}
}

// All fetches all tokens of the source, the last token is always EoF.
func (l *Lexer) All(src *source.Source) ([]*Token, error) {
	var (
		res []*Token
		tok *Token
		e   error
	)
	pos := 0
	for {
		tok, pos, e = l.Next(src, pos)
		if e != nil {
			return nil, e
		}

		res = append(res, tok)
		if tok.Kind() == Eof {
			return res, nil
		}
	}
}

func describeBroken(text string) string {
	switch text[0] {
	case '"', '\'':
		return "string literal"
	case '`':
		return "raw pattern"
	default:
		return "block comment"
	}
}

var (
	keywords = bmap.FromStrings(map[string]bool{
		"let": true, "either": true, "match": true, "capture": true,
		"option": true, "some": true, "any": true, "of": true,
		"lazy": true, "not": true, "to": true, "over": true,
	})

	classes = bmap.FromStrings(map[string]Kind{
		"word": BuiltinClass, "digit": BuiltinClass, "whitespace": BuiltinClass,
		"char": BuiltinClass, "space": BuiltinClass, "newline": BuiltinClass,
		"tab": BuiltinClass, "return": BuiltinClass, "feed": BuiltinClass,
		"null": BuiltinClass, "vertical": BuiltinClass, "alphabetic": BuiltinClass,
		"alphanumeric": BuiltinClass, "boundary": BuiltinClass,
		"start": Anchor, "end": Anchor,
	})
)

var dslLexer *Lexer

func init() {
	tokenTypes := []TokenType{
		{String, "string"},
		{String, "string"},
		{RawClass, "raw"},
		{BuiltinClass, "class"},
		{Ident, "reference"},
		{ClassLiteral, "range"},
		{Number, "number"},
		{Name, "word"},
		{Punct, "punct"},
		{errorKind, "broken"},
	}

	re := regexp.MustCompile(
		`^(?s:\s+|//[^\n]*|/\*.*?\*/|` +
			`("(?:[^"\\\n]|\\.)*")|` +
			`('[^'\n]*')|` +
			"(`[^`]*`)|" +
			`(<[a-z]+>)|` +
			`(\.[A-Za-z_][A-Za-z0-9_-]*)|` +
			`([A-Za-z0-9] to [A-Za-z0-9]\b)|` +
			`([0-9]+)|` +
			`([A-Za-z_][A-Za-z0-9_]*)|` +
			`([{};=])|` +
			"([\"'`]|/\\*))")

	dslLexer = New(re, tokenTypes)
}

// Tokenize splits pattern description into tokens, the last token is always EoF.
// Whitespace and comments are discarded.
// Token values are post-processed: string escapes are decoded, decorations are stripped,
// keywords and classes are recognized.
func Tokenize(src *source.Source) ([]*Token, error) {
	tokens, e := dslLexer.All(src)
	if e != nil {
		return nil, e
	}

	for i, t := range tokens {
		tokens[i], e = refine(t)
		if e != nil {
			return nil, e
		}
	}
	return tokens, nil
}

// TokenizeString is a shortcut for Tokenize(source.NewString(name, content)).
func TokenizeString(name, content string) ([]*Token, error) {
	return Tokenize(source.NewString(name, content))
}

func refine(t *Token) (*Token, error) {
	text := t.Text()
	switch t.Kind() {
	case String:
		if text[0] == '\'' {
			return NewToken(String, text, text[1:len(text)-1], t.Pos()), nil
		}
		value, e := unescape(t)
		if e != nil {
			return nil, e
		}
		return NewToken(String, text, value, t.Pos()), nil

	case RawClass:
		return NewToken(RawClass, text, text[1:len(text)-1], t.Pos()), nil

	case BuiltinClass:
		name := []byte(text[1 : len(text)-1])
		kind, found := classes.Get(name)
		if !found {
			return nil, melody.FormatErrorPos(t, UnknownClassError, "unknown class %s", text)
		}
		return NewToken(kind, text, string(name), t.Pos()), nil

	case Ident:
		return NewToken(Ident, text, text[1:], t.Pos()), nil

	case Name:
		if _, found := keywords.Get([]byte(text)); found {
			return NewToken(Keyword, text, text, t.Pos()), nil
		}
	}
	return t, nil
}

type escapeCharEntry struct {
	substitute, hexLen byte
}

var escapeCharMap = map[byte]escapeCharEntry{
	'\\': {'\\', 0},
	'"':  {'"', 0},
	'n':  {'\n', 0},
	'r':  {'\r', 0},
	't':  {'\t', 0},
	'x':  {0, 2},
	'u':  {0, 4},
}

func unescape(t *Token) (string, error) {
	content := []byte(t.Text())
	content = content[1 : len(content)-1]
	if bytes.IndexByte(content, '\\') < 0 {
		return string(content), nil
	}

	escapeError := func(seq []byte) error {
		return melody.FormatErrorPos(t, BadEscapeError, "invalid escape sequence %q", seq)
	}

	result := make([]byte, 0, len(content))
	for {
		slashPos := bytes.IndexByte(content, '\\')
		if slashPos < 0 {
			result = append(result, content...)
			break
		}

		result = append(result, content[:slashPos]...)
		content = content[slashPos:]

		entry, valid := escapeCharMap[content[1]]
		if !valid {
			return "", escapeError(content[:2])
		}

		if entry.hexLen == 0 {
			result = append(result, entry.substitute)
			content = content[2:]
			continue
		}

		seqLen := int(entry.hexLen) + 2
		if len(content) < seqLen {
			return "", escapeError(content)
		}

		codePoint, e := strconv.ParseUint(string(content[2:seqLen]), 16, 32)
		if e != nil || !utf8.ValidRune(rune(codePoint)) {
			return "", escapeError(content[:seqLen])
		}

		result = utf8.AppendRune(result, rune(codePoint))
		content = content[seqLen:]
	}

	return string(result), nil
}
