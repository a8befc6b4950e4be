package lexer

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"doccheck/internal/source"
)

// Cursor walks the bytes of one file. The scanner never needs to look more
// than two bytes ahead, so there is no rune decoding: identifiers and
// comments are delimited by ASCII bytes only.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32 // exclusive; len(File.Content) unless narrowed
}

// NewCursor positions a cursor at the start of f.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file %s too large for a cursor: %w", f.Path, err))
	}
	return Cursor{File: f, Limit: limit}
}

func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

func (c *Cursor) at(off uint32) byte {
	if off >= c.Limit {
		return 0
	}
	return c.File.Content[off]
}

// Peek returns the current byte, 0 at EOF.
func (c *Cursor) Peek() byte { return c.at(c.Off) }

// Peek2 returns the current and the next byte; ok is false when fewer than
// two bytes remain.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if c.Off+1 >= c.Limit {
		return 0, 0, false
	}
	return c.at(c.Off), c.at(c.Off + 1), true
}

// Bump consumes one byte and returns it, 0 at EOF.
func (c *Cursor) Bump() byte {
	b := c.at(c.Off)
	if !c.EOF() {
		c.Off++
	}
	return b
}

// Eat consumes the current byte only if it is b.
func (c *Cursor) Eat(b byte) bool {
	if c.EOF() || c.File.Content[c.Off] != b {
		return false
	}
	c.Off++
	return true
}

// SkipUntil stops on the next b, or at EOF.
func (c *Cursor) SkipUntil(b byte) {
	if i := bytes.IndexByte(c.File.Content[c.Off:c.Limit], b); i >= 0 {
		c.Off += uint32(i) //nolint:gosec // i < Limit-Off
		return
	}
	c.Off = c.Limit
}

// SkipWhile consumes bytes for which keep returns true.
func (c *Cursor) SkipWhile(keep func(byte) bool) {
	for !c.EOF() && keep(c.File.Content[c.Off]) {
		c.Off++
	}
}

// SkipPast moves just past the next occurrence of delim and reports the
// offset where delim started. At EOF without a match it returns false.
func (c *Cursor) SkipPast(delim string) (uint32, bool) {
	i := bytes.Index(c.File.Content[c.Off:c.Limit], []byte(delim))
	if i < 0 {
		c.Off = c.Limit
		return c.Limit, false
	}
	at := c.Off + uint32(i) //nolint:gosec // i < Limit-Off
	c.Off = at + uint32(len(delim)) //nolint:gosec // delimiters are a few bytes
	return at, true
}

// Mark is a saved offset.
type Mark uint32

func (c *Cursor) Mark() Mark { return Mark(c.Off) }

// Since returns the bytes consumed after m.
func (c *Cursor) Since(m Mark) []byte {
	return c.File.Content[m:c.Off]
}

// SpanFrom returns the span from m to the current offset.
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}
