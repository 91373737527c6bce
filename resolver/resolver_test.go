package resolver

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/melody"
	"github.com/ava12/melody/ast"
	"github.com/ava12/melody/parser"
	"github.com/ava12/melody/symbols"
)

func prepare(t *testing.T, src string, opts Options) (*Resolver, *parser.Unit) {
	t.Helper()
	unit, e := parser.ParseString("sample", src, parser.Options{})
	require.NoError(t, e)

	table := symbols.New()
	require.NoError(t, table.DefineAll(unit.Definitions))
	return New(table, opts), unit
}

func dump(t *testing.T, n ast.Node) string {
	t.Helper()
	var buf strings.Builder
	require.NoError(t, ast.Dump(&buf, n))
	return buf.String()
}

func TestResolveRoot(t *testing.T) {
	r, unit := prepare(t, `
		.number;
		let .number { option of .sign; .digits; }
		let .sign { `+"`[+-]`"+` }
		let .digits { some of <digit> }
	`, Options{})

	root, e := r.Resolve(unit.Root)
	require.NoError(t, e)
	assert.Zero(t, ast.CountReferences(root))
	assert.Equal(t, `sequence
  repeat 0..1
    raw "[+-]"
  repeat 1..inf
    class <digit>
`, dump(t, root))

	assert.IsType(t, &ast.Reference{}, unit.Root, "source tree must stay intact")
}

func TestForwardAndBackwardReferences(t *testing.T) {
	r, unit := prepare(t, "let .a { 'a'; .b } let .b { 'b'; .c } let .c { 'c' } .a; .c", Options{})
	root, e := r.Resolve(unit.Root)
	require.NoError(t, e)
	assert.Zero(t, ast.CountReferences(root))
	require.NoError(t, r.ResolveAll())

	for _, name := range []string{"a", "b", "c"} {
		body, e := r.ResolveDefinition(name)
		require.NoError(t, e, name)
		assert.Zero(t, ast.CountReferences(body), name)
	}
}

func TestDiamondCopiesAreIndependent(t *testing.T) {
	r, unit := prepare(t, `
		let .d { 'd' }
		let .b { .d; 'b' }
		let .c { .d; 'c' }
		.b; .c; .d
	`, Options{})

	root, e := r.Resolve(unit.Root)
	require.NoError(t, e)

	seq := root.(*ast.Sequence)
	first := seq.Children[0].(*ast.Sequence).Children[0].(*ast.Literal)
	second := seq.Children[1].(*ast.Sequence).Children[0].(*ast.Literal)
	third := seq.Children[2].(*ast.Literal)
	assert.Equal(t, "d", first.Text)
	assert.Equal(t, "d", second.Text)
	assert.NotSame(t, first, second)
	assert.NotSame(t, first, third)

	first.Text = "changed"
	assert.Equal(t, "d", second.Text)
	again, e := r.ResolveDefinition("d")
	require.NoError(t, e)
	assert.Equal(t, "d", again.(*ast.Literal).Text)
}

func TestIdempotent(t *testing.T) {
	r, unit := prepare(t, "let .x { some of <word> } <start>; .x; either { 'a'; capture n { .x } } <end>", Options{})
	once, e := r.Resolve(unit.Root)
	require.NoError(t, e)
	twice, e := r.Resolve(once)
	require.NoError(t, e)
	assert.Equal(t, once, twice)
	assert.Equal(t, dump(t, once), dump(t, twice))
}

func TestCycles(t *testing.T) {
	samples := []struct {
		src   string
		names []string
	}{
		{"let .a { .b; } let .b { .a; } .a", []string{"a", "b", "a"}},
		{"let .a { .a } .a", []string{"a", "a"}},
		{"let .x { 'x' } let .a { .x; .b } let .b { some of .c } let .c { match { .a } } .x; .a", []string{"a", "b", "c", "a"}},
		{"let .top { .b } let .b { .c } let .c { .b } .top", []string{"b", "c", "b"}},
	}

	for _, s := range samples {
		r, unit := prepare(t, s.src, Options{})
		_, e := r.Resolve(unit.Root)
		require.Error(t, e, "source %q", s.src)

		me, ok := melody.AsError(e)
		require.True(t, ok)
		assert.Equal(t, CycleError, me.Code, "source %q: %s", s.src, me.Message)
		assert.Equal(t, melody.ResolveErrors, me.Class())
		assert.Equal(t, s.names, me.Names, "source %q", s.src)
		assert.NotZero(t, me.Line)
		for _, name := range s.names {
			assert.Contains(t, me.Message, "."+name)
		}
	}
}

func TestCycleInDefinitionsOnly(t *testing.T) {
	r, _ := prepare(t, "let .a { .b; } let .b { .a; }", Options{})
	e := r.ResolveAll()
	require.Error(t, e)
	assert.True(t, melody.HasCode(e, CycleError))
	me, _ := melody.AsError(e)
	assert.Equal(t, []string{"a", "b", "a"}, me.Names)
}

func TestUndefined(t *testing.T) {
	r, unit := prepare(t, "let .a { .missing } 'x'; .a", Options{})
	_, e := r.Resolve(unit.Root)
	require.Error(t, e)
	me, _ := melody.AsError(e)
	assert.Equal(t, symbols.UndefinedError, me.Code)
	assert.Equal(t, 1, me.Line)
	assert.Equal(t, 10, me.Col)

	_, e = r.ResolveDefinition("nope")
	assert.True(t, melody.HasCode(e, symbols.UndefinedError))
}

func TestZeroWidthQuantifier(t *testing.T) {
	rejected := []string{
		"some of <start>",
		"2 of <boundary>",
		"some of not <boundary>",
		"let .e { <end> } any of .e",
		"some of match { <start>; }",
		"any of match { <start>; <boundary> }",
		"lazy over 1 of either { <start>; <end>; }",
	}
	for _, src := range rejected {
		r, unit := prepare(t, src, Options{})
		_, e := r.Resolve(unit.Root)
		assert.True(t, melody.HasCode(e, ZeroWidthError), "source %q: %v", src, e)
	}

	accepted := []string{
		"option of <start>; 'a'",
		"option of <boundary>",
		"option of match { <start> }",
		"let .e { <end> } option of .e",
		"some of match { <start>; 'a' }",
		"any of either { <start>; 'a'; }",
		"1 of <end>",
	}
	for _, src := range accepted {
		r, unit := prepare(t, src, Options{})
		_, e := r.Resolve(unit.Root)
		assert.NoError(t, e, "source %q", src)
	}
}

func TestUnused(t *testing.T) {
	r, unit := prepare(t, `
		let .a { .b }
		let .b { 'b' }
		let .c { .d }
		let .d { 'd' }
		let .e { .a }
		.a
	`, Options{})
	assert.Equal(t, []string{"c", "d", "e"}, r.Unused(unit.Root))
	assert.Nil(t, r.Unused(nil))

	r, unit = prepare(t, "let .a { .a } .a", Options{})
	assert.Empty(t, r.Unused(unit.Root))
}

func TestDepthLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "let .d%d { match { .d%d } }\n", i, i+1)
	}
	sb.WriteString("let .d10 { 'x' }\n.d0")
	src := sb.String()

	r, unit := prepare(t, src, Options{MaxDepth: 11})
	root, e := r.Resolve(unit.Root)
	require.NoError(t, e)
	assert.Equal(t, 11, ast.Height(root))

	r, unit = prepare(t, src, Options{MaxDepth: 10})
	_, e = r.Resolve(unit.Root)
	assert.True(t, melody.HasCode(e, melody.RecursionLimitError), "%v", e)

	r, unit = prepare(t, src+"; match { match { .d0 } }", Options{MaxDepth: 12})
	require.NoError(t, r.ResolveAll())
	_, e = r.Resolve(unit.Root)
	assert.True(t, melody.HasCode(e, melody.RecursionLimitError), "cached bodies are checked too: %v", e)
}
