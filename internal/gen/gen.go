// Package gen renders compiled patterns as text, JSON, or Go source.
package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ava12/melody/compiler"
)

var identRe = regexp.MustCompile("^[A-Za-z_][A-Za-z_0-9]*$")

// GoOptions controls Go source generation.
type GoOptions struct {
	// Package is the package name of generated file.
	Package string

	// RootName is the variable name for root pattern, derived from source name if empty.
	RootName string
}

type jsonResult struct {
	Name        string            `json:"name"`
	Pattern     string            `json:"pattern,omitempty"`
	Definitions map[string]string `json:"definitions"`
	Order       []string          `json:"order"`
	Unused      []string          `json:"unused,omitempty"`
}

// Text writes root pattern (if any) and then definitions in declaration order.
func Text(res *compiler.Result) []byte {
	var buffer bytes.Buffer
	if res.HasRoot() {
		buffer.WriteString(res.Pattern + "\n")
	}
	for _, name := range res.Order {
		buffer.WriteString(fmt.Sprintf(".%s\t%s\n", name, res.Definitions[name]))
	}
	for _, name := range res.Unused {
		buffer.WriteString(fmt.Sprintf("# unused .%s\n", name))
	}
	return buffer.Bytes()
}

// JSON renders compiled unit as indented JSON object.
func JSON(res *compiler.Result) ([]byte, error) {
	return json.MarshalIndent(toJSON(res), "", "  ")
}

// JSONBatch renders several results as a JSON array.
func JSONBatch(results []*compiler.Result) ([]byte, error) {
	items := make([]jsonResult, len(results))
	for i, res := range results {
		items[i] = toJSON(res)
	}
	return json.MarshalIndent(items, "", "  ")
}

func toJSON(res *compiler.Result) jsonResult {
	return jsonResult{
		Name:        res.Name,
		Pattern:     res.Pattern,
		Definitions: res.Definitions,
		Order:       res.Order,
		Unused:      res.Unused,
	}
}

// Go renders a Go source file declaring a compiled *regexp.Regexp variable per pattern.
func Go(res *compiler.Result, opts GoOptions) ([]byte, error) {
	if !identRe.MatchString(opts.Package) {
		return nil, fmt.Errorf("invalid package name: %q", opts.Package)
	}

	rootName := opts.RootName
	if rootName == "" && res.HasRoot() {
		base := filepath.Base(res.Name)
		rootName = GoName(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if res.HasRoot() && !identRe.MatchString(rootName) {
		return nil, fmt.Errorf("invalid variable name: %q", rootName)
	}

	type entry struct{ name, comment, pattern string }
	entries := make([]entry, 0, len(res.Order)+1)
	used := map[string]string{}
	if res.HasRoot() {
		entries = append(entries, entry{rootName, "top-level pattern", res.Pattern})
		used[rootName] = "top-level pattern"
	}
	for _, name := range res.Order {
		varName := GoName(name)
		if prev, found := used[varName]; found {
			return nil, fmt.Errorf("variable name %s for .%s conflicts with %s", varName, name, prev)
		}
		used[varName] = "." + name
		entries = append(entries, entry{varName, "." + name, res.Definitions[name]})
	}

	var buffer bytes.Buffer
	buffer.WriteString("// Code generated with melodyc from " + filepath.Base(res.Name) + ". DO NOT EDIT.\n\n" +
		"package " + opts.Package + "\n\n")

	if len(entries) == 0 {
		return format.Source(buffer.Bytes())
	}

	buffer.WriteString("import \"regexp\"\n\nvar (\n")
	for _, e := range entries {
		buffer.WriteString(fmt.Sprintf("\t// %s is %s.\n", e.name, e.comment))
		buffer.WriteString(fmt.Sprintf("\t%s = regexp.MustCompile(%s)\n", e.name, quote(e.pattern)))
	}
	buffer.WriteString(")\n")

	return format.Source(buffer.Bytes())
}

// GoName converts a definition or file name to an exported Go identifier: "css-selector" becomes "CssSelector".
func GoName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}

	res := sb.String()
	if res == "" || unicode.IsDigit([]rune(res)[0]) {
		res = "P" + res
	}
	return res
}

func quote(pattern string) string {
	if strconv.CanBackquote(pattern) {
		return "`" + pattern + "`"
	}
	return strconv.Quote(pattern)
}
