package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Visitor is called for each node, it receives node depth (0 for root).
// Returning false skips node children.
type Visitor func(n Node, level int) (walkChildren bool)

// Walk visits nodes in depth-first left-to-right order.
func Walk(n Node, v Visitor) {
	walk(n, v, 0)
}

func walk(n Node, v Visitor, level int) {
	if n == nil || !v(n, level) {
		return
	}

	for _, c := range Children(n) {
		walk(c, v, level+1)
	}
}

// CountReferences returns the number of Reference nodes in a tree.
func CountReferences(n Node) int {
	res := 0
	Walk(n, func(n Node, _ int) bool {
		if _, is := n.(*Reference); is {
			res++
		}
		return true
	})
	return res
}

// References returns referenced definition names in order of appearance, with duplicates.
func References(n Node) []string {
	var res []string
	Walk(n, func(n Node, _ int) bool {
		if r, is := n.(*Reference); is {
			res = append(res, r.Name)
		}
		return true
	})
	return res
}

// Height returns the number of levels in a tree, 0 for nil.
func Height(n Node) int {
	res := 0
	Walk(n, func(_ Node, level int) bool {
		if level >= res {
			res = level + 1
		}
		return true
	})
	return res
}

// Clone returns a deep copy of a tree.
func Clone(n Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Literal:
		c := *n
		return &c
	case *CharClass:
		c := *n
		return &c
	case *Anchor:
		c := *n
		return &c
	case *Reference:
		c := *n
		return &c
	case *Sequence:
		return &Sequence{Children: cloneList(n.Children), At: n.At}
	case *Alternation:
		return &Alternation{Children: cloneList(n.Children), At: n.At}
	case *Quantified:
		c := *n
		c.Child = Clone(n.Child)
		return &c
	case *Group:
		c := *n
		c.Child = Clone(n.Child)
		return &c
	default:
		panic(fmt.Sprintf("unexpected node type %T", n))
	}
}

func cloneList(ns []Node) []Node {
	res := make([]Node, len(ns))
	for i, n := range ns {
		res[i] = Clone(n)
	}
	return res
}

// Describe returns a one-line node description without children.
func Describe(n Node) string {
	switch n := n.(type) {
	case *Literal:
		return "literal " + strconv.Quote(n.Text)
	case *CharClass:
		if n.Raw != "" {
			return "raw " + strconv.Quote(n.Raw)
		}
		if n.Negated {
			return "class not <" + n.Builtin + ">"
		}
		return "class <" + n.Builtin + ">"
	case *Anchor:
		return "anchor <" + n.Kind.String() + ">"
	case *Sequence:
		return "sequence"
	case *Alternation:
		return "either"
	case *Quantified:
		res := "repeat " + strconv.Itoa(n.Min) + ".."
		if n.Max == Unbounded {
			res += "inf"
		} else {
			res += strconv.Itoa(n.Max)
		}
		if n.Lazy {
			res += " lazy"
		}
		return res
	case *Group:
		if !n.Capturing {
			return "match"
		}
		if n.Name != "" {
			return "capture " + n.Name
		}
		return "capture"
	case *Reference:
		return "." + n.Name
	default:
		return fmt.Sprintf("%T", n)
	}
}

// Dump writes indented tree, one node per line.
func Dump(w io.Writer, n Node) error {
	var e error
	Walk(n, func(n Node, level int) bool {
		if e == nil {
			_, e = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), Describe(n))
		}
		return e == nil
	})
	return e
}
