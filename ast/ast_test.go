package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Node {
	return &Sequence{Children: []Node{
		&Anchor{Kind: Start},
		&Quantified{Child: &Literal{Text: "-"}, Min: 0, Max: 1},
		&Group{Capturing: true, Name: "int", Child: &Quantified{
			Child: &CharClass{Builtin: "digit"}, Min: 1, Max: Unbounded,
		}},
		&Alternation{Children: []Node{
			&Reference{Name: "frac"},
			&CharClass{Raw: "[eE]"},
		}},
		&Quantified{Child: &Reference{Name: "frac"}, Min: 2, Max: 4, Lazy: true},
		&Anchor{Kind: End},
	}}
}

func TestDump(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Dump(&buf, sampleTree()))
	expected := `sequence
  anchor <start>
  repeat 0..1
    literal "-"
  capture int
    repeat 1..inf
      class <digit>
  either
    .frac
    raw "[eE]"
  repeat 2..4 lazy
    .frac
  anchor <end>
`
	assert.Equal(t, expected, buf.String())
}

func TestWalkSkipsChildren(t *testing.T) {
	var visited []string
	Walk(sampleTree(), func(n Node, level int) bool {
		visited = append(visited, Describe(n))
		_, isGroup := n.(*Group)
		return !isGroup
	})
	assert.Contains(t, visited, "capture int")
	assert.NotContains(t, visited, "class <digit>")
}

func TestReferences(t *testing.T) {
	tree := sampleTree()
	assert.Equal(t, 2, CountReferences(tree))
	assert.Equal(t, []string{"frac", "frac"}, References(tree))
	assert.Zero(t, CountReferences(&Literal{Text: "x"}))
}

func TestHeight(t *testing.T) {
	assert.Equal(t, 4, Height(sampleTree()))
	assert.Equal(t, 1, Height(&Literal{Text: "x"}))
	assert.Zero(t, Height(nil))
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleTree()
	c := Clone(orig)
	require.Equal(t, orig, c)

	seq := c.(*Sequence)
	seq.Children[1].(*Quantified).Child.(*Literal).Text = "+"
	seq.Children[3].(*Alternation).Children[0] = &Literal{Text: "x"}

	origSeq := orig.(*Sequence)
	assert.Equal(t, "-", origSeq.Children[1].(*Quantified).Child.(*Literal).Text)
	assert.IsType(t, &Reference{}, origSeq.Children[3].(*Alternation).Children[0])
	assert.Nil(t, Clone(nil))
}

func TestIsZeroWidth(t *testing.T) {
	assert.True(t, IsZeroWidth(&Anchor{Kind: End}))
	assert.True(t, IsZeroWidth(&CharClass{Builtin: "boundary"}))
	assert.False(t, IsZeroWidth(&CharClass{Builtin: "word"}))
	assert.False(t, IsZeroWidth(&Literal{Text: "^"}))

	start := &Anchor{Kind: Start}
	assert.True(t, IsZeroWidth(&Group{Child: &Sequence{Children: []Node{start, &CharClass{Builtin: "boundary"}}}}))
	assert.True(t, IsZeroWidth(&Alternation{Children: []Node{start, &Anchor{Kind: End}}}))
	assert.True(t, IsZeroWidth(&Quantified{Child: start, Min: 0, Max: 1}))
	assert.False(t, IsZeroWidth(&Sequence{Children: []Node{start, &Literal{Text: "a"}}}))
	assert.False(t, IsZeroWidth(&Alternation{Children: []Node{start, &Literal{Text: "a"}}}))
	assert.False(t, IsZeroWidth(&Sequence{}))
}
