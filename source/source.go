// Package source defines source file and positions inside it.
package source

import (
	"bytes"
	"unicode/utf8"
)

// Source holds the name and the content of a single compilation unit.
// Line start offsets are computed once, so conversions between byte offsets and line/column pairs are cheap.
// Source is not safe for concurrent use since it caches the last looked up line.
type Source struct {
	name          string
	content       []byte
	lineStarts    []int
	prevLineIndex int
}

// New creates new source. name is used in error messages only and may be empty.
func New(name string, content []byte) *Source {
	s := &Source{name: name, content: content, prevLineIndex: -1}
	lineCnt := bytes.Count(content, []byte("\n")) + 1
	s.lineStarts = make([]int, lineCnt)
	j := 1
	for i := 0; i < len(content) && j < lineCnt; i++ {
		if content[i] == '\n' {
			s.lineStarts[j] = i + 1
			j++
		}
	}

	return s
}

// NewString is a shortcut for New(name, []byte(content)).
func NewString(name, content string) *Source {
	return New(name, []byte(content))
}

// Name returns source name.
func (s *Source) Name() string {
	return s.name
}

// Content returns source content, it must not be modified.
func (s *Source) Content() []byte {
	return s.content
}

// Len returns content length in bytes.
func (s *Source) Len() int {
	return len(s.content)
}

// LineCount returns the number of lines, the last line may be empty.
func (s *Source) LineCount() int {
	return len(s.lineStarts)
}

// Line returns content of 1-based line without trailing line break or nil if there is no such line.
func (s *Source) Line(line int) []byte {
	if line <= 0 || line > len(s.lineStarts) {
		return nil
	}

	start := s.lineStarts[line-1]
	end := len(s.content)
	if line < len(s.lineStarts) {
		end = s.lineStarts[line] - 1
	}
	return bytes.TrimRight(s.content[start:end], "\r")
}

// LineCol converts byte offset to 1-based line and column numbers, column counts runes.
// Offsets outside of content are clamped.
func (s *Source) LineCol(pos int) (line, col int) {
	var lineIndex int
	if pos < 0 {
		pos = 0
		lineIndex = 0
	} else if pos >= len(s.content) {
		pos = len(s.content)
		lineIndex = len(s.lineStarts) - 1
	} else {
		lineIndex = s.findLineIndex(pos)
	}

	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

// Pos converts 1-based line and column numbers to byte offset, column is treated as byte index.
func (s *Source) Pos(line, col int) int {
	if line <= 0 || col <= 0 {
		return 0
	}

	l := len(s.content)
	if line > len(s.lineStarts) {
		return l
	}

	res := s.lineStarts[line-1] + col - 1
	if res > l {
		return l
	}
	return res
}

func (s *Source) findLineIndex(pos int) int {
	if s.prevLineIndex >= 0 && s.lineStarts[s.prevLineIndex] <= pos {
		lineIndex := s.prevLineIndex
		last := len(s.lineStarts) - 1
		for lineIndex <= last && s.lineStarts[lineIndex] <= pos {
			lineIndex++
		}
		lineIndex--
		s.prevLineIndex = lineIndex
		return lineIndex
	}

	leftIndex := 0
	rightIndex := len(s.lineStarts) - 1
	index := 0
	if s.prevLineIndex >= 0 {
		rightIndex = s.prevLineIndex
	}
	for leftIndex < rightIndex {
		index = (leftIndex + rightIndex + 1) >> 1
		lineStart := s.lineStarts[index]
		if lineStart == pos {
			break
		}

		if lineStart < pos {
			leftIndex = index
		} else {
			rightIndex = index - 1
			index = rightIndex
		}
	}
	if leftIndex >= rightIndex {
		index = leftIndex
	}
	s.prevLineIndex = index
	return index
}

// Pos is a position inside a source. Zero value means "no position".
// Pos implements melody.SourcePos.
type Pos struct {
	src            *Source
	pos, line, col int
}

// NewPos creates position for given byte offset.
func NewPos(s *Source, pos int) Pos {
	if s == nil {
		return Pos{pos: pos}
	}

	line, col := s.LineCol(pos)
	return Pos{s, pos, line, col}
}

// Source returns source or nil.
func (p Pos) Source() *Source {
	return p.src
}

// SourceName returns source name or empty string.
func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.name
}

// Offset returns byte offset.
func (p Pos) Offset() int {
	return p.pos
}

// Line returns 1-based line number or 0.
func (p Pos) Line() int {
	return p.line
}

// Col returns 1-based column number or 0.
func (p Pos) Col() int {
	return p.col
}

// IsValid tells whether position refers to some source.
func (p Pos) IsValid() bool {
	return p.line > 0
}
