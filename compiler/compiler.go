// Package compiler runs the whole pipeline: lexer, parser, symbol table, resolver, and emitter.
//
// Each compilation unit gets its own symbol table and trees, so independent units
// may be compiled concurrently, see CompileBatch.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"sync"

	"github.com/ava12/melody/ast"
	"github.com/ava12/melody/emitter"
	"github.com/ava12/melody/parser"
	"github.com/ava12/melody/resolver"
	"github.com/ava12/melody/source"
	"github.com/ava12/melody/symbols"
)

// Options control compilation.
type Options struct {
	// MaxDepth limits nesting depth of blocks, quantifiers, and resolved references, 256 if not positive.
	MaxDepth int
}

// Result holds compiled patterns of a single unit.
type Result struct {
	// Name contains source name.
	Name string

	// Pattern contains compiled anonymous top-level statements, empty if there are none.
	Pattern string

	// Definitions maps definition names to independently compiled patterns.
	Definitions map[string]string

	// Order lists definition names in declaration order.
	Order []string

	// Unused lists definitions not reachable from top-level statements.
	Unused []string

	// Root contains resolved tree of top-level statements or nil.
	Root ast.Node
}

// HasRoot tells whether the unit contains anonymous top-level statements.
func (r *Result) HasRoot() bool {
	return r.Root != nil
}

// Regexp compiles root pattern.
func (r *Result) Regexp() (*regexp.Regexp, error) {
	return regexp.Compile(r.Pattern)
}

// DefinitionRegexp compiles named pattern.
func (r *Result) DefinitionRegexp(name string) (*regexp.Regexp, error) {
	pattern, found := r.Definitions[name]
	if !found {
		return nil, fmt.Errorf("%s: no definition .%s", r.Name, name)
	}
	return regexp.Compile(pattern)
}

// MatchString reports whether s contains any match of root pattern.
func (r *Result) MatchString(s string) (bool, error) {
	re, e := r.Regexp()
	if e != nil {
		return false, e
	}
	return re.MatchString(s), nil
}

// Compile compiles pattern description. Returns nil and *melody.Error (or melody.ErrorList
// for duplicate definitions) on failure.
func Compile(name, content string, opts Options) (*Result, error) {
	return CompileSource(source.NewString(name, content), opts)
}

// CompileFile reads and compiles a file, the path is used as source name.
func CompileFile(path string, opts Options) (*Result, error) {
	content, e := os.ReadFile(path)
	if e != nil {
		return nil, fmt.Errorf("read %s: %w", path, e)
	}

	return CompileSource(source.New(path, content), opts)
}

// CompileSource compiles a source.
func CompileSource(src *source.Source, opts Options) (*Result, error) {
	unit, e := parser.ParseSource(src, parser.Options{MaxDepth: opts.MaxDepth})
	if e != nil {
		return nil, e
	}

	table := symbols.New()
	if e = table.DefineAll(unit.Definitions); e != nil {
		return nil, e
	}

	r := resolver.New(table, resolver.Options{MaxDepth: opts.MaxDepth})
	unused := r.Unused(unit.Root)
	root, e := r.Resolve(unit.Root)
	if e != nil {
		return nil, e
	}

	if e = r.ResolveAll(); e != nil {
		return nil, e
	}

	res := &Result{
		Name:        src.Name(),
		Definitions: make(map[string]string, table.Len()),
		Order:       table.Names(),
		Unused:      unused,
		Root:        root,
	}

	res.Pattern, e = emitter.Emit(root)
	if e != nil {
		return nil, e
	}

	for _, name := range res.Order {
		body, e := r.ResolveDefinition(name)
		if e != nil {
			return nil, e
		}

		res.Definitions[name], e = emitter.Emit(body)
		if e != nil {
			return nil, e
		}
	}

	return res, nil
}

// Unit is an input of CompileBatch.
type Unit struct {
	// Name is used as source name.
	Name string

	// Content is pattern description; if empty, Name is treated as file path and read.
	Content string
}

// BatchResult contains either Result or Err for corresponding input unit.
type BatchResult struct {
	Unit   Unit
	Result *Result
	Err    error
}

// CompileBatch compiles units concurrently using up to workers goroutines (GOMAXPROCS if not positive).
// Results are returned in input order. Units not started before ctx is done fail with ctx.Err().
func CompileBatch(ctx context.Context, units []Unit, workers int, opts Options) []BatchResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(units) {
		workers = len(units)
	}

	results := make([]BatchResult, len(units))
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = compileUnit(ctx, units[i], opts)
			}
		}()
	}

	for i := range units {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = BatchResult{Unit: units[i], Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func compileUnit(ctx context.Context, u Unit, opts Options) BatchResult {
	res := BatchResult{Unit: u}
	if e := ctx.Err(); e != nil {
		res.Err = e
	} else if u.Content == "" {
		res.Result, res.Err = CompileFile(u.Name, opts)
	} else {
		res.Result, res.Err = Compile(u.Name, u.Content, opts)
	}
	return res
}

// FindFiles returns sorted paths of files with given extension in dir (not recursive).
func FindFiles(dir, ext string) ([]string, error) {
	entries, e := os.ReadDir(dir)
	if e != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, e)
	}

	var res []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ext {
			res = append(res, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(res)
	return res, nil
}
