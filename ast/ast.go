// Package ast defines pattern tree nodes.
//
// Parser produces trees that may contain Reference nodes, resolver replaces them
// with copies of definition bodies, emitter accepts reference-free trees only.
// Trees never share nodes: every transformation returns fresh copies.
package ast

import (
	"github.com/ava12/melody/source"
)

// Unbounded is the Quantified.Max value meaning "no upper limit".
const Unbounded = -1

// Node is a pattern tree node, one of *Literal, *CharClass, *Anchor, *Sequence,
// *Alternation, *Quantified, *Group, *Reference.
type Node interface {
	// Pos returns position of the construct in pattern description, may be zero.
	Pos() source.Pos
	node()
}

// Literal matches exact text.
type Literal struct {
	Text string
	At   source.Pos
}

// CharClass matches a single character (or a boundary for "boundary" builtin).
// Exactly one of Builtin and Raw is not empty.
type CharClass struct {
	// Builtin contains class name: word, digit, whitespace, char, etc.
	Builtin string
	// Raw contains verbatim pattern text.
	Raw string
	// Negated inverts builtin class.
	Negated bool
	At      source.Pos
}

// AnchorKind is Start or End.
type AnchorKind int

const (
	Start AnchorKind = iota
	End
)

func (k AnchorKind) String() string {
	if k == Start {
		return "start"
	}
	return "end"
}

// Anchor matches start or end of input.
type Anchor struct {
	Kind AnchorKind
	At   source.Pos
}

// Sequence matches its children one after another. Children list is never empty.
type Sequence struct {
	Children []Node
	At       source.Pos
}

// Alternation matches the first matching child. Children list is never empty.
type Alternation struct {
	Children []Node
	At       source.Pos
}

// Quantified repeats Child from Min to Max times, Max may be Unbounded.
type Quantified struct {
	Child    Node
	Min, Max int
	// Lazy prefers fewer repetitions.
	Lazy bool
	At   source.Pos
}

// Group wraps Child in a capturing or non-capturing group. Name is used by capturing groups only.
type Group struct {
	Child     Node
	Capturing bool
	Name      string
	At        source.Pos
}

// Reference is a use site of a named definition.
type Reference struct {
	Name string
	At   source.Pos
}

func (n *Literal) Pos() source.Pos     { return n.At }
func (n *CharClass) Pos() source.Pos   { return n.At }
func (n *Anchor) Pos() source.Pos      { return n.At }
func (n *Sequence) Pos() source.Pos    { return n.At }
func (n *Alternation) Pos() source.Pos { return n.At }
func (n *Quantified) Pos() source.Pos  { return n.At }
func (n *Group) Pos() source.Pos       { return n.At }
func (n *Reference) Pos() source.Pos   { return n.At }

func (*Literal) node()     {}
func (*CharClass) node()   {}
func (*Anchor) node()      {}
func (*Sequence) node()    {}
func (*Alternation) node() {}
func (*Quantified) node()  {}
func (*Group) node()       {}
func (*Reference) node()   {}

// IsZeroWidth tells whether node matches a position rather than a character.
// Groups, sequences, and alternations are zero-width when all their children are.
func IsZeroWidth(n Node) bool {
	switch n := n.(type) {
	case *Anchor:
		return true
	case *CharClass:
		return n.Builtin == "boundary"
	case *Group:
		return IsZeroWidth(n.Child)
	case *Quantified:
		return IsZeroWidth(n.Child)
	case *Sequence:
		return allZeroWidth(n.Children)
	case *Alternation:
		return allZeroWidth(n.Children)
	default:
		return false
	}
}

func allZeroWidth(ns []Node) bool {
	if len(ns) == 0 {
		return false
	}
	for _, n := range ns {
		if !IsZeroWidth(n) {
			return false
		}
	}
	return true
}

// Children returns direct children of a node. The slice must not be modified.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Sequence:
		return n.Children
	case *Alternation:
		return n.Children
	case *Quantified:
		return []Node{n.Child}
	case *Group:
		return []Node{n.Child}
	default:
		return nil
	}
}
