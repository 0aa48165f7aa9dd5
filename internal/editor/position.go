package editor

import (
	"errors"
	"fmt"
)

// Errors returned by document operations.
var (
	// ErrInvalidPosition indicates a position outside the document.
	ErrInvalidPosition = errors.New("position out of range")

	// ErrInvalidLine indicates a line index outside the document.
	ErrInvalidLine = errors.New("line out of range")

	// ErrEmptyRange indicates a marker range with no extent.
	ErrEmptyRange = errors.New("empty marker range")

	// ErrMarkOverlap indicates a marker would overlap an existing one.
	ErrMarkOverlap = errors.New("marker overlaps an existing marker")

	// ErrMultiLineWidget indicates a replacing marker spanning lines.
	ErrMultiLineWidget = errors.New("replaced range must be on one line")
)

// Pos is a line and column position. Both are 0-indexed; Ch counts bytes.
type Pos struct {
	Line int
	Ch   int
}

// String returns a human-readable representation of the position.
func (p Pos) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Ch)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Pos) Compare(other Pos) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Ch < other.Ch:
		return -1
	case p.Ch > other.Ch:
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Pos) Before(other Pos) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Pos) After(other Pos) bool {
	return p.Compare(other) > 0
}

// Change describes one edit, in coordinates from before the edit.
type Change struct {
	From    Pos
	To      Pos
	Text    []string
	Removed []string
}

// End returns the position just after the inserted text, in coordinates
// from after the edit.
func (c Change) End() Pos {
	last := len(c.Text) - 1
	if last == 0 {
		return Pos{Line: c.From.Line, Ch: c.From.Ch + len(c.Text[0])}
	}
	return Pos{Line: c.From.Line + last, Ch: len(c.Text[last])}
}

// IsInsert reports whether the change removes nothing.
func (c Change) IsInsert() bool {
	return c.From == c.To
}

// mapAfter maps a position at or after c.To through the change.
func (c Change) mapAfter(p Pos) Pos {
	end := c.End()
	if p.Line == c.To.Line {
		return Pos{Line: end.Line, Ch: end.Ch + p.Ch - c.To.Ch}
	}
	return Pos{Line: p.Line + end.Line - c.To.Line, Ch: p.Ch}
}
