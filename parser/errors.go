package parser

import (
	"github.com/ava12/melody"
	"github.com/ava12/melody/lexer"
)

// Error codes used by parser:
const (
	// UnexpectedTokenError indicates a token that does not fit the grammar.
	// Error contains expected and found token descriptions.
	UnexpectedTokenError = melody.SyntaxErrors + iota

	// UnexpectedEofError indicates source ending in the middle of a statement or block.
	UnexpectedEofError

	// MissingStatementError indicates an empty block.
	MissingStatementError

	// AlternativesError indicates "either" block with less than two alternatives.
	AlternativesError

	// QuantifierError indicates a quantifier applied directly to another quantifier.
	QuantifierError

	// RangeError indicates a repetition or character range with lower bound exceeding upper one.
	RangeError

	// UnknownClassError indicates "not" applied to a class that cannot be negated.
	UnknownClassError
)

func syntaxError(t *lexer.Token, code int, expected, msg string, params ...any) *melody.Error {
	e := melody.FormatErrorPos(t, code, msg, params...)
	e.Expected = expected
	e.Found = t.Describe()
	return e
}

func unexpectedError(t *lexer.Token, expected string) *melody.Error {
	if t.Kind() == lexer.Eof {
		return syntaxError(t, UnexpectedEofError, expected, "unexpected end of source, expecting %s", expected)
	}
	return syntaxError(t, UnexpectedTokenError, expected, "unexpected %s, expecting %s", t.Describe(), expected)
}

func missingStatementError(t *lexer.Token) *melody.Error {
	return syntaxError(t, MissingStatementError, "statement", "empty block")
}

func alternativesError(t *lexer.Token, count int) *melody.Error {
	return syntaxError(t, AlternativesError, "statement", "either needs at least 2 alternatives, got %d", count)
}

func quantifierError(t *lexer.Token) *melody.Error {
	return syntaxError(t, QuantifierError, "statement", "cannot quantify a quantifier, wrap it with match { }")
}

func rangeError(t *lexer.Token, from, to string) *melody.Error {
	return syntaxError(t, RangeError, "", "invalid range: %s is greater than %s", from, to)
}

func unknownClassError(t *lexer.Token) *melody.Error {
	return syntaxError(t, UnknownClassError, "negatable class", "class %s cannot be negated", t.Text())
}

func depthError(t *lexer.Token, limit int) *melody.Error {
	return melody.FormatErrorPos(t, melody.RecursionLimitError, "nesting depth exceeds %d", limit)
}
