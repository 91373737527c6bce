// Package symbols holds named pattern definitions of a compilation unit.
package symbols

import (
	"github.com/ava12/melody"
	"github.com/ava12/melody/ast"
	"github.com/ava12/melody/source"
)

// Error codes used by symbol table:
const (
	// DuplicateError indicates a name defined more than once in a unit.
	// Error message contains the position of the first definition.
	DuplicateError = melody.DefinitionErrors + iota

	// UndefinedError indicates a reference to a name that has no definition.
	UndefinedError
)

// Definition is a named pattern introduced by "let" statement.
type Definition struct {
	// Name contains definition name without leading dot.
	Name string

	// Body contains definition body, it may contain references before resolution.
	Body ast.Node

	// Pos contains position of the defined name.
	Pos source.Pos

	// Resolved is set once Body contains no references.
	Resolved bool

	id int
}

// ID returns definition index in declaration order or -1 if the definition is not in a table.
func (d *Definition) ID() int {
	return d.id
}

// MarkResolved replaces definition body with resolved one. Subsequent calls are ignored.
func (d *Definition) MarkResolved(body ast.Node) {
	if d.Resolved {
		return
	}

	d.Body = body
	d.Resolved = true
}

// NewDefinition creates definition not yet added to any table.
func NewDefinition(name string, body ast.Node, pos source.Pos) *Definition {
	return &Definition{Name: name, Body: body, Pos: pos, id: -1}
}

// Table maps names to definitions. Table is not safe for concurrent modification,
// each compilation unit has its own table.
type Table struct {
	defs  []*Definition
	index map[string]int
}

// New creates empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

func duplicateError(def, first *Definition) *melody.Error {
	msg := "duplicate definition ." + def.Name
	var e *melody.Error
	if first.Pos.IsValid() {
		e = melody.FormatErrorPos(def.Pos, DuplicateError, "%s (first defined at line %d col %d)",
			msg, first.Pos.Line(), first.Pos.Col())
	} else {
		e = melody.FormatErrorPos(def.Pos, DuplicateError, msg)
	}
	e.Names = []string{def.Name}
	return e
}

// Define adds a definition to the table. Returns DuplicateError if the name is already defined,
// existing definition is kept intact in this case.
func (t *Table) Define(def *Definition) error {
	if i, has := t.index[def.Name]; has {
		return duplicateError(def, t.defs[i])
	}

	def.id = len(t.defs)
	t.index[def.Name] = def.id
	t.defs = append(t.defs, def)
	return nil
}

// DefineAll adds definitions in order. All duplicates are reported,
// returns nil, a single *melody.Error, or melody.ErrorList.
func (t *Table) DefineAll(defs []*Definition) error {
	var list melody.ErrorList
	for _, def := range defs {
		if e := t.Define(def); e != nil {
			list = append(list, e.(*melody.Error))
		}
	}
	return list.Err()
}

// Lookup returns a definition for a name. pos is the position of the reference used for error reporting.
func (t *Table) Lookup(name string, pos source.Pos) (*Definition, error) {
	if i, has := t.index[name]; has {
		return t.defs[i], nil
	}

	var e *melody.Error
	if pos.IsValid() {
		e = melody.FormatErrorPos(pos, UndefinedError, "undefined reference .%s", name)
	} else {
		e = melody.FormatError(UndefinedError, "undefined reference .%s", name)
	}
	e.Names = []string{name}
	return nil, e
}

// Get returns a definition by name or nil.
func (t *Table) Get(name string) *Definition {
	if i, has := t.index[name]; has {
		return t.defs[i]
	}
	return nil
}

// ByID returns a definition by its index or nil.
func (t *Table) ByID(id int) *Definition {
	if id < 0 || id >= len(t.defs) {
		return nil
	}
	return t.defs[id]
}

// Names returns defined names in declaration order.
func (t *Table) Names() []string {
	res := make([]string, len(t.defs))
	for i, def := range t.defs {
		res[i] = def.Name
	}
	return res
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	return len(t.defs)
}
