// Package resolver substitutes named references with independent copies of definition bodies.
package resolver

import (
	"strings"

	"github.com/ava12/melody"
	"github.com/ava12/melody/ast"
	"github.com/ava12/melody/internal/ints"
	"github.com/ava12/melody/internal/queue"
	"github.com/ava12/melody/source"
	"github.com/ava12/melody/symbols"
)

// Error codes used by resolver:
const (
	// CycleError indicates a definition referring to itself directly or transitively.
	// Error.Names contains the cycle, the first name is repeated at the end.
	CycleError = melody.ResolveErrors + iota

	// ZeroWidthError indicates a repeated anchor, word boundary, or a group made only of them.
	ZeroWidthError
)

// DefaultMaxDepth is used when Options.MaxDepth is not positive.
const DefaultMaxDepth = 256

// Options control resolution.
type Options struct {
	// MaxDepth limits nesting of nodes in resolved trees, references included.
	MaxDepth int
}

// Resolver resolves trees using a single symbol table.
// Resolved definition bodies are cached in the table, so a resolver must not be used concurrently.
type Resolver struct {
	table    *symbols.Table
	maxDepth int
	deps     []*ints.Set
	heights  []int
	path     []*symbols.Definition
	onPath   *ints.Set
}

// New creates a resolver. The table must be fully populated.
func New(table *symbols.Table, opts Options) *Resolver {
	r := &Resolver{
		table:    table,
		maxDepth: opts.MaxDepth,
		deps:     make([]*ints.Set, table.Len()),
		heights:  make([]int, table.Len()),
		onPath:   ints.NewSet(),
	}
	if r.maxDepth <= 0 {
		r.maxDepth = DefaultMaxDepth
	}

	for i := range r.deps {
		r.deps[i] = r.dependencies(table.ByID(i).Body)
	}
	return r
}

func (r *Resolver) dependencies(n ast.Node) *ints.Set {
	res := ints.NewSet()
	for _, name := range ast.References(n) {
		if def := r.table.Get(name); def != nil {
			res.Add(def.ID())
		}
	}
	return res
}

func cycleError(ref *ast.Reference, names []string) *melody.Error {
	e := melody.FormatErrorPos(ref.Pos(), CycleError, "cyclic definition .%s", strings.Join(names, " -> ."))
	e.Names = names
	return e
}

func zeroWidthError(n *ast.Quantified) *melody.Error {
	return melody.FormatErrorPos(n.Pos(), ZeroWidthError, "cannot quantify zero-width %s", ast.Describe(n.Child))
}

func depthError(n ast.Node, limit int) *melody.Error {
	return melody.FormatErrorPos(n.Pos(), melody.RecursionLimitError, "resolved pattern depth exceeds %d", limit)
}

// Resolve returns a copy of the tree with all references replaced. The tree itself is not modified.
// Resolving a tree with no references yields an equal tree.
func (r *Resolver) Resolve(n ast.Node) (ast.Node, error) {
	if n == nil {
		return nil, nil
	}

	return r.resolveNode(n, 1)
}

// ResolveDefinition returns a copy of resolved definition body.
func (r *Resolver) ResolveDefinition(name string) (ast.Node, error) {
	def := r.table.Get(name)
	if def == nil {
		_, e := r.table.Lookup(name, source.Pos{})
		return nil, e
	}

	body, e := r.resolveDefinition(def, &ast.Reference{Name: name, At: def.Pos}, 1)
	if e != nil {
		return nil, e
	}

	return ast.Clone(body), nil
}

// ResolveAll resolves every definition in declaration order, stops at the first error.
func (r *Resolver) ResolveAll() error {
	for i := 0; i < r.table.Len(); i++ {
		if _, e := r.ResolveDefinition(r.table.ByID(i).Name); e != nil {
			return e
		}
	}
	return nil
}

// Unused returns names of definitions unreachable from the root tree in declaration order.
// Returns nil for nil root.
func (r *Resolver) Unused(root ast.Node) []string {
	if root == nil {
		return nil
	}

	unreached := ints.NewSet()
	for i := 0; i < r.table.Len(); i++ {
		unreached.Add(i)
	}

	searchQueue := queue.New(r.dependencies(root).ToSlice()...)
	for {
		id, fetched := searchQueue.First()
		if !fetched {
			break
		}

		if !unreached.Contains(id) {
			continue
		}

		unreached.Remove(id)
		searchQueue.Append(r.deps[id].ToSlice()...)
	}

	var res []string
	for _, id := range unreached.ToSlice() {
		res = append(res, r.table.ByID(id).Name)
	}
	return res
}

func (r *Resolver) resolveDefinition(def *symbols.Definition, ref *ast.Reference, depth int) (ast.Node, error) {
	if def.Resolved {
		h := r.heights[def.ID()]
		if h == 0 {
			h = ast.Height(def.Body)
			r.heights[def.ID()] = h
		}
		if depth+h-1 > r.maxDepth {
			return nil, depthError(ref, r.maxDepth)
		}
		return def.Body, nil
	}

	if r.onPath.Contains(def.ID()) {
		start := 0
		for i, d := range r.path {
			if d == def {
				start = i
				break
			}
		}

		names := make([]string, 0, len(r.path)-start+1)
		for _, d := range r.path[start:] {
			names = append(names, d.Name)
		}
		return nil, cycleError(ref, append(names, def.Name))
	}

	r.path = append(r.path, def)
	r.onPath.Add(def.ID())
	body, e := r.resolveNode(def.Body, depth)
	r.onPath.Remove(def.ID())
	r.path = r.path[:len(r.path)-1]
	if e != nil {
		return nil, e
	}

	def.MarkResolved(body)
	r.heights[def.ID()] = ast.Height(body)
	return body, nil
}

func (r *Resolver) resolveNode(n ast.Node, depth int) (ast.Node, error) {
	if depth > r.maxDepth {
		return nil, depthError(n, r.maxDepth)
	}

	switch n := n.(type) {
	case *ast.Reference:
		def, e := r.table.Lookup(n.Name, n.At)
		if e != nil {
			return nil, e
		}

		body, e := r.resolveDefinition(def, n, depth)
		if e != nil {
			return nil, e
		}

		return ast.Clone(body), nil

	case *ast.Sequence:
		children, e := r.resolveList(n.Children, depth)
		if e != nil {
			return nil, e
		}
		return &ast.Sequence{Children: children, At: n.At}, nil

	case *ast.Alternation:
		children, e := r.resolveList(n.Children, depth)
		if e != nil {
			return nil, e
		}
		return &ast.Alternation{Children: children, At: n.At}, nil

	case *ast.Quantified:
		child, e := r.resolveNode(n.Child, depth+1)
		if e != nil {
			return nil, e
		}

		res := *n
		res.Child = child
		if (res.Max == ast.Unbounded || res.Max > 1) && ast.IsZeroWidth(child) {
			return nil, zeroWidthError(&res)
		}
		return &res, nil

	case *ast.Group:
		child, e := r.resolveNode(n.Child, depth+1)
		if e != nil {
			return nil, e
		}

		res := *n
		res.Child = child
		return &res, nil

	default:
		return ast.Clone(n), nil
	}
}

func (r *Resolver) resolveList(ns []ast.Node, depth int) ([]ast.Node, error) {
	res := make([]ast.Node, len(ns))
	for i, n := range ns {
		c, e := r.resolveNode(n, depth+1)
		if e != nil {
			return nil, e
		}

		res[i] = c
	}
	return res, nil
}
