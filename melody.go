/*
Package melody compiles readable, composable pattern descriptions into Go (RE2) regular expressions.

Consists of subpackages:
  - cmd/melodyc: console utility compiling pattern description files, generating Go source, serving a compile API;
  - source: defines source file and source positions;
  - lexer: lexical analyzer for the description language;
  - ast: pattern node types, tree walking and copying;
  - parser: converts token stream to named definitions and an anonymous root pattern;
  - symbols: definition table;
  - resolver: substitutes named references with independent copies of definition bodies;
  - emitter: serializes resolved patterns to regular expressions;
  - compiler: runs the whole pipeline for one or many compilation units.

Typical usage is:

1. Describe a pattern:

	let .digits { some of <digit>; }
	<start>;
	option of "-";
	.digits;
	option of match { "."; .digits; }
	<end>;

2. Compile it with compiler.Compile and feed the resulting string to regexp.Compile.
*/
package melody

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	LexicalErrors    = 101 // used by lexer
	SyntaxErrors     = 201 // used by parser
	DefinitionErrors = 301 // used by symbols
	ResolveErrors    = 401 // used by resolver
	LimitErrors      = 501 // used by parser and resolver
	EmitErrors       = 601 // used by emitter
)

// RecursionLimitError indicates that nesting of blocks or references exceeds configured depth.
const RecursionLimitError = LimitErrors

// Error is the error type used by melody subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int

	// Offset contains byte offset in source file, meaningful only if Line is not 0.
	Offset int

	// Expected and Found describe syntax errors, both may be empty.
	Expected, Found string

	// Names contains definition names involved in the error, e.g. the reference cycle.
	Names []string
}

// SourcePos is used to retrieve source name and position information when constructing an error;
// source.Pos and lexer.Token implement this interface.
type SourcePos interface {
	// SourceName returns source file name or empty string.
	SourceName() string
	// Line returns line number or 0.
	Line() int
	// Col returns column number or 0.
	Col() int
	// Offset returns byte offset.
	Offset() int
}

// NewError creates new Error structure.
// name, line, and col will be added to error message if provided (non-zero).
func NewError(code int, msg, name string, line, col int) *Error {
	if line != 0 && col != 0 {
		if name == "" {
			msg += fmt.Sprintf(" at line %d col %d", line, col)
		} else {
			msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
		}
	}
	return &Error{Code: code, Message: msg, SourceName: name, Line: line, Col: col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// Class returns error class, one of LexicalErrors, SyntaxErrors, etc.
func (e *Error) Class() int {
	return (e.Code-1)/100*100 + 1
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	e := NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
	e.Offset = pos.Offset()
	return e
}

// ErrorList holds sibling errors detected by a single stage, e.g. several duplicate definitions.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func (l ErrorList) Unwrap() []error {
	res := make([]error, len(l))
	for i, e := range l {
		res[i] = e
	}
	return res
}

// Err returns nil for empty list, the only element for single-element list, and the list itself otherwise.
func (l ErrorList) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	default:
		return l
	}
}

// AsError extracts the first *Error from e.
func AsError(e error) (*Error, bool) {
	var me *Error
	if errors.As(e, &me) {
		return me, true
	}
	return nil, false
}

// HasCode tells whether e is (or wraps) an *Error with given code.
func HasCode(e error, code int) bool {
	me, ok := AsError(e)
	return ok && me.Code == code
}

// IsClass tells whether e is (or wraps) an *Error of given class.
func IsClass(e error, class int) bool {
	me, ok := AsError(e)
	return ok && me.Class() == class
}
