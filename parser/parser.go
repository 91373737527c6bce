// Package parser converts a token stream to named definitions and an anonymous root pattern.
//
// Grammar:
//
//	unit       = { let | statement } ;
//	let        = "let" REFERENCE ["="] block ;
//	block      = "{" statement { statement } "}" ;
//	statement  = quantified [";"] ;
//	quantified = quantifier atom | atom ;
//	quantifier = ["lazy"] ( "option" "of" | "some" "of" | "any" "of"
//	           | NUMBER "of" | NUMBER "to" NUMBER "of" | "over" NUMBER "of" ) ;
//	atom       = STRING | RAW | ["not"] CLASS | ANCHOR | REFERENCE | RANGE
//	           | "either" block | "match" block | "capture" [NAME] block ;
//
// Semicolon may be omitted after a block, before closing brace, and at the end of source.
package parser

import (
	"strconv"

	"github.com/ava12/melody/ast"
	"github.com/ava12/melody/lexer"
	"github.com/ava12/melody/source"
	"github.com/ava12/melody/symbols"
)

// DefaultMaxDepth is used when Options.MaxDepth is not positive.
const DefaultMaxDepth = 256

// Options control parsing.
type Options struct {
	// MaxDepth limits nesting of blocks and quantifiers.
	MaxDepth int
}

// Unit is a parsed compilation unit.
type Unit struct {
	// Definitions are listed in declaration order, duplicates included.
	Definitions []*symbols.Definition

	// Root contains anonymous top-level statements or nil if there are none.
	Root ast.Node
}

// ParseString is a shortcut for ParseSource(source.NewString(name, content), opts).
func ParseString(name, content string, opts Options) (*Unit, error) {
	return ParseSource(source.NewString(name, content), opts)
}

// ParseSource tokenizes and parses a source.
func ParseSource(src *source.Source, opts Options) (*Unit, error) {
	tokens, e := lexer.Tokenize(src)
	if e != nil {
		return nil, e
	}

	return Parse(tokens, opts)
}

// Parse parses a token stream. The stream is expected to end with EoF token, one is added if missing.
// Returns nil and *melody.Error on failure.
func Parse(tokens []*lexer.Token, opts Options) (*Unit, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind() != lexer.Eof {
		var pos source.Pos
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Pos()
		}
		tokens = append(tokens[:len(tokens):len(tokens)], lexer.NewToken(lexer.Eof, "", "", pos))
	}

	p := &parser{tokens: tokens, maxDepth: opts.MaxDepth}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}

	return p.parseUnit()
}

type parser struct {
	tokens   []*lexer.Token
	index    int
	depth    int
	maxDepth int
}

const (
	lCurly    = "{"
	rCurly    = "}"
	semicolon = ";"
	equ       = "="
)

// next returns current token and advances the cursor; EoF token is returned repeatedly.
func (p *parser) next() *lexer.Token {
	t := p.tokens[p.index]
	if t.Kind() != lexer.Eof {
		p.index++
	}
	return t
}

// put returns the last fetched token to the stream.
func (p *parser) put(t *lexer.Token) {
	if t.Kind() == lexer.Eof {
		return
	}

	if p.index == 0 || p.tokens[p.index-1] != t {
		panic("cannot put " + t.Describe() + ": not the last fetched token")
	}

	p.index--
}

func (p *parser) peek() *lexer.Token {
	return p.tokens[p.index]
}

// fetch returns next token if it has given kind and text, otherwise leaves it in the stream and returns nil.
func (p *parser) fetch(kind lexer.Kind, text string) *lexer.Token {
	t := p.next()
	if t.Is(kind, text) {
		return t
	}

	p.put(t)
	return nil
}

// expect returns next token if it has given kind and text, fails otherwise.
func (p *parser) expect(kind lexer.Kind, text, expected string) (*lexer.Token, error) {
	t := p.next()
	if t.Is(kind, text) {
		return t, nil
	}

	return nil, unexpectedError(t, expected)
}

func (p *parser) enter(t *lexer.Token) error {
	p.depth++
	if p.depth > p.maxDepth {
		return depthError(t, p.maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseUnit() (*Unit, error) {
	unit := &Unit{}
	var statements []ast.Node
	for {
		t := p.next()
		if t.Kind() == lexer.Eof {
			break
		}

		if t.Is(lexer.Keyword, "let") {
			def, e := p.parseLet()
			if e != nil {
				return nil, e
			}

			unit.Definitions = append(unit.Definitions, def)
			continue
		}

		p.put(t)
		node, e := p.parseStatement()
		if e != nil {
			return nil, e
		}

		statements = append(statements, node)
	}

	if len(statements) > 0 {
		unit.Root = sequence(statements, statements[0].Pos())
	}
	return unit, nil
}

func (p *parser) parseLet() (*symbols.Definition, error) {
	name, e := p.expect(lexer.Ident, "", "definition name")
	if e != nil {
		return nil, e
	}

	p.fetch(lexer.Punct, equ)
	body, e := p.parseBlock()
	if e != nil {
		return nil, e
	}

	return symbols.NewDefinition(name.Value(), body, name.Pos()), nil
}

// parseStatements parses "{" statement... "}" and returns the statements and the opening brace.
func (p *parser) parseStatements() ([]ast.Node, *lexer.Token, error) {
	open, e := p.expect(lexer.Punct, lCurly, `"{"`)
	if e != nil {
		return nil, nil, e
	}

	if e = p.enter(open); e != nil {
		return nil, nil, e
	}
	defer p.leave()

	var res []ast.Node
	for {
		if p.fetch(lexer.Punct, rCurly) != nil {
			break
		}

		node, e := p.parseStatement()
		if e != nil {
			return nil, nil, e
		}

		res = append(res, node)
	}

	if len(res) == 0 {
		return nil, nil, missingStatementError(open)
	}

	return res, open, nil
}

func (p *parser) parseBlock() (ast.Node, error) {
	statements, open, e := p.parseStatements()
	if e != nil {
		return nil, e
	}

	return sequence(statements, open.Pos()), nil
}

func sequence(nodes []ast.Node, pos source.Pos) ast.Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &ast.Sequence{Children: nodes, At: pos}
}

func (p *parser) parseStatement() (ast.Node, error) {
	node, isBlock, e := p.parseQuantified()
	if e != nil {
		return nil, e
	}

	if p.fetch(lexer.Punct, semicolon) != nil || isBlock {
		return node, nil
	}

	t := p.peek()
	if t.Kind() == lexer.Eof || t.Is(lexer.Punct, rCurly) {
		return node, nil
	}

	return nil, unexpectedError(p.next(), `";"`)
}

type quantifier struct {
	min, max int
	lazy     bool
}

func (p *parser) parseQuantified() (node ast.Node, isBlock bool, e error) {
	first := p.peek()
	q, found, e := p.parseQuantifier()
	if e != nil || !found {
		if e == nil {
			node, isBlock, e = p.parseAtom()
		}
		return
	}

	if e = p.enter(first); e != nil {
		return
	}
	defer p.leave()

	child, isBlock, e := p.parseAtom()
	if e != nil {
		return nil, false, e
	}

	return &ast.Quantified{Child: child, Min: q.min, Max: q.max, Lazy: q.lazy, At: first.Pos()}, isBlock, nil
}

func isQuantifierStart(t *lexer.Token) bool {
	switch t.Kind() {
	case lexer.Number:
		return true
	case lexer.Keyword:
		switch t.Text() {
		case "lazy", "option", "some", "any", "over":
			return true
		}
	}
	return false
}

// parseQuantifier returns found == false if next tokens do not form a quantifier; tokens are left intact then.
func (p *parser) parseQuantifier() (q quantifier, found bool, e error) {
	t := p.next()
	if t.Is(lexer.Keyword, "lazy") {
		q.lazy = true
		t = p.next()
		if !isQuantifierStart(t) && !p.isRangeQuantifier(t) {
			return q, false, unexpectedError(t, "quantifier")
		}
	}

	switch {
	case t.Is(lexer.Keyword, "option"):
		q.min, q.max = 0, 1
	case t.Is(lexer.Keyword, "some"):
		q.min, q.max = 1, ast.Unbounded
	case t.Is(lexer.Keyword, "any"):
		q.min, q.max = 0, ast.Unbounded
	case t.Is(lexer.Keyword, "over"):
		n, e := p.parseCount()
		if e != nil {
			return q, false, e
		}
		q.min, q.max = n+1, ast.Unbounded

	case t.Kind() == lexer.Number:
		p.put(t)
		n, e := p.parseCount()
		if e != nil {
			return q, false, e
		}

		q.min, q.max = n, n
		if p.fetch(lexer.Keyword, "to") != nil {
			q.max, e = p.parseCount()
			if e != nil {
				return q, false, e
			}

			if q.min > q.max {
				return q, false, rangeError(t, strconv.Itoa(q.min), strconv.Itoa(q.max))
			}
		}

	case p.isRangeQuantifier(t):
		from, to := rangeBounds(t.Value())
		q.min, q.max = int(from-'0'), int(to-'0')
		if q.min > q.max {
			return q, false, rangeError(t, string(from), string(to))
		}

	default:
		p.put(t)
		return q, false, nil
	}

	_, e = p.expect(lexer.Keyword, "of", `"of"`)
	return q, e == nil, e
}

// isRangeQuantifier tells whether t is a digit range like "1 to 5" followed by "of".
func (p *parser) isRangeQuantifier(t *lexer.Token) bool {
	if t.Kind() != lexer.ClassLiteral {
		return false
	}

	from, to := rangeBounds(t.Value())
	if !isDigit(from) || !isDigit(to) {
		return false
	}

	return p.peek().Is(lexer.Keyword, "of")
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func rangeBounds(text string) (from, to byte) {
	return text[0], text[len(text)-1]
}

func (p *parser) parseCount() (int, error) {
	t, e := p.expect(lexer.Number, "", "number")
	if e != nil {
		return 0, e
	}

	n, e := strconv.Atoi(t.Value())
	if e != nil || n > maxCount {
		return 0, syntaxError(t, RangeError, "number", "repetition count %s is too big", t.Text())
	}
	return n, nil
}

// maxCount is the largest repetition count accepted by RE2.
const maxCount = 1000

var negatable = map[string]bool{
	"word": true, "digit": true, "whitespace": true, "boundary": true,
	"alphabetic": true, "alphanumeric": true, "space": true, "newline": true,
	"tab": true, "return": true, "feed": true, "null": true, "vertical": true,
}

func (p *parser) parseAtom() (ast.Node, bool, error) {
	t := p.next()
	if isQuantifierStart(t) || p.isRangeQuantifier(t) {
		return nil, false, quantifierError(t)
	}

	switch t.Kind() {
	case lexer.String:
		return &ast.Literal{Text: t.Value(), At: t.Pos()}, false, nil

	case lexer.RawClass:
		if t.Value() == "" {
			return nil, false, syntaxError(t, UnexpectedTokenError, "raw pattern", "empty raw pattern")
		}
		return &ast.CharClass{Raw: t.Value(), At: t.Pos()}, false, nil

	case lexer.BuiltinClass:
		return &ast.CharClass{Builtin: t.Value(), At: t.Pos()}, false, nil

	case lexer.Anchor:
		kind := ast.Start
		if t.Value() == "end" {
			kind = ast.End
		}
		return &ast.Anchor{Kind: kind, At: t.Pos()}, false, nil

	case lexer.Ident:
		return &ast.Reference{Name: t.Value(), At: t.Pos()}, false, nil

	case lexer.ClassLiteral:
		from, to := rangeBounds(t.Value())
		if from > to {
			return nil, false, rangeError(t, string(from), string(to))
		}
		return &ast.CharClass{Raw: "[" + string(from) + "-" + string(to) + "]", At: t.Pos()}, false, nil

	case lexer.Keyword:
		switch t.Text() {
		case "not":
			class, e := p.expect(lexer.BuiltinClass, "", "character class")
			if e != nil {
				return nil, false, e
			}
			if !negatable[class.Value()] {
				return nil, false, unknownClassError(class)
			}
			return &ast.CharClass{Builtin: class.Value(), Negated: true, At: t.Pos()}, false, nil

		case "either":
			alts, _, e := p.parseStatements()
			if e != nil {
				return nil, false, e
			}
			if len(alts) < 2 {
				return nil, false, alternativesError(t, len(alts))
			}
			return &ast.Alternation{Children: alts, At: t.Pos()}, true, nil

		case "match":
			body, e := p.parseBlock()
			if e != nil {
				return nil, false, e
			}
			return &ast.Group{Child: body, At: t.Pos()}, true, nil

		case "capture":
			var name string
			if nt := p.fetch(lexer.Name, ""); nt != nil {
				name = nt.Value()
			}
			body, e := p.parseBlock()
			if e != nil {
				return nil, false, e
			}
			return &ast.Group{Child: body, Capturing: true, Name: name, At: t.Pos()}, true, nil
		}
	}

	return nil, false, unexpectedError(t, "statement")
}
