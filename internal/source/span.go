// Package source provides byte-offset spans over document text and the
// line/column arithmetic needed to report them.
package source

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into a document's text.
type Span struct {
	Start int
	End   int
}

// NoSpan is the zero-length span used when a location is unknown.
var NoSpan = Span{Start: -1, End: -1}

// IsValid returns true if the span lies inside a document.
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	if !s.IsValid() {
		return 0
	}

	return s.End - s.Start
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return s.IsValid() && offset >= s.Start && offset < s.End
}

// Text returns the span's text, or "" when the span does not fit text.
func (s Span) Text(text string) string {
	if !s.IsValid() || s.End > len(text) {
		return ""
	}

	return text[s.Start:s.End]
}

// Shift returns the span moved by delta bytes.
func (s Span) Shift(delta int) Span {
	if !s.IsValid() {
		return s
	}

	return Span{Start: s.Start + delta, End: s.End + delta}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// PositionOf converts a byte offset into a 1-based line/column pair.
// Columns count bytes, matching how the host reports them.
func PositionOf(text string, offset int) Position {
	if offset < 0 {
		return Position{}
	}

	if offset > len(text) {
		offset = len(text)
	}

	line := 1 + strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	return Position{Line: line, Column: offset - lineStart + 1}
}

// LineStart returns the offset of the first byte of the line holding offset.
func LineStart(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}

	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// Indentation returns the leading whitespace of the line holding offset.
func Indentation(text string, offset int) string {
	start := LineStart(text, offset)

	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}

	return text[start:end]
}

// StartsLine reports whether only whitespace precedes offset on its line.
func StartsLine(text string, offset int) bool {
	start := LineStart(text, offset)

	return strings.TrimSpace(text[start:offset]) == ""
}

// Insert returns text with fragment inserted at offset.
func Insert(text string, offset int, fragment string) (string, error) {
	if offset < 0 || offset > len(text) {
		return "", fmt.Errorf("insert offset %d outside text of length %d", offset, len(text))
	}

	return text[:offset] + fragment + text[offset:], nil
}
