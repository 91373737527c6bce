package gen

import (
	"encoding/json"
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/melody/compiler"
)

func compile(t *testing.T, name, src string) *compiler.Result {
	t.Helper()
	res, e := compiler.Compile(name, src, compiler.Options{})
	require.NoError(t, e)
	return res
}

func declaredVars(t *testing.T, src []byte) (string, []string) {
	t.Helper()
	f, e := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	require.NoError(t, e, string(src))

	var names []string
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, vs := range gd.Specs {
			for _, n := range vs.(*ast.ValueSpec).Names {
				names = append(names, n.Name)
			}
		}
	}
	return f.Name.Name, names
}

func TestGo(t *testing.T) {
	res := compile(t, "dir/iso-date.mdy", "let .year { 4 of <digit> }\nlet .two-digits { 2 of <digit> }\n"+
		"<start>; .year; '-'; .two-digits; <end>")

	src, e := Go(res, GoOptions{Package: "patterns"})
	require.NoError(t, e)
	pkg, vars := declaredVars(t, src)
	assert.Equal(t, "patterns", pkg)
	assert.Equal(t, []string{"IsoDate", "Year", "TwoDigits"}, vars)

	text := string(src)
	assert.Contains(t, text, "// Code generated with melodyc from iso-date.mdy. DO NOT EDIT.")
	assert.Contains(t, text, "regexp.MustCompile(`^\\d{4}-\\d{2}$`)")
	assert.Contains(t, text, "// TwoDigits is .two-digits.")

	src, e = Go(res, GoOptions{Package: "p", RootName: "Date"})
	require.NoError(t, e)
	_, vars = declaredVars(t, src)
	assert.Equal(t, "Date", vars[0])
}

func TestGoQuoting(t *testing.T) {
	res := compile(t, "q.mdy", "'`'; '\"'")
	src, e := Go(res, GoOptions{Package: "p"})
	require.NoError(t, e)
	assert.Contains(t, string(src), "regexp.MustCompile(\"`\\\"\")")
	declaredVars(t, src)
}

func TestGoErrors(t *testing.T) {
	res := compile(t, "x.mdy", "let .a-b { 'x' }\nlet .a_b { 'y' }\n")
	_, e := Go(res, GoOptions{Package: "p"})
	assert.ErrorContains(t, e, "AB")

	_, e = Go(res, GoOptions{Package: "1p"})
	assert.ErrorContains(t, e, "package")

	_, e = Go(compile(t, "x.mdy", "'x'"), GoOptions{Package: "p", RootName: "not valid"})
	assert.ErrorContains(t, e, "variable")
}

func TestGoEmpty(t *testing.T) {
	src, e := Go(compile(t, "empty.mdy", "// nothing\n"), GoOptions{Package: "p"})
	require.NoError(t, e)
	_, vars := declaredVars(t, src)
	assert.Empty(t, vars)
	assert.NotContains(t, string(src), "import")
}

func TestGoName(t *testing.T) {
	samples := map[string]string{
		"digits":       "Digits",
		"css-selector": "CssSelector",
		"snake_case":   "SnakeCase",
		"x":            "X",
		"2fa":          "P2fa",
		"--":           "P",
	}
	for name, expected := range samples {
		assert.Equal(t, expected, GoName(name), name)
	}
}

func TestText(t *testing.T) {
	res := compile(t, "t.mdy", "let .a { 'a' }\nlet .b { some of 'b' }\n.a")
	assert.Equal(t, "a\n.a\ta\n.b\tb+\n# unused .b\n", string(Text(res)))
}

func TestJSON(t *testing.T) {
	res := compile(t, "t.mdy", "let .a { 'a' }\n.a; .a")
	b, e := JSON(res)
	require.NoError(t, e)
	assert.JSONEq(t, `{"name":"t.mdy","pattern":"aa","definitions":{"a":"a"},"order":["a"]}`, string(b))

	b, e = JSONBatch([]*compiler.Result{res, compile(t, "u.mdy", "let .u { 'u' }")})
	require.NoError(t, e)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(b, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "u.mdy", items[1]["name"])
	assert.NotContains(t, items[1], "pattern")
}
