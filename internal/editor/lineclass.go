package editor

import (
	"slices"
	"strings"
)

// Line class targets.
const (
	WhereWrap       = "wrap"
	WhereBackground = "background"
	WhereText       = "text"
)

// LineInfo describes one line and the classes attached to it. Class lists
// are space-separated.
type LineInfo struct {
	Line      int
	Text      string
	WrapClass string
	BgClass   string
	TextClass string
}

// AddLineClass attaches class to line n at where. It reports whether the
// line changed.
func (d *Document) AddLineClass(n int, where, class string) bool {
	if n < 0 || n >= len(d.lines) || class == "" {
		return false
	}
	l := d.lines[n]
	if slices.Contains(l.classes[where], class) {
		return false
	}
	if l.classes == nil {
		l.classes = make(map[string][]string)
	}
	l.classes[where] = append(l.classes[where], class)
	return true
}

// RemoveLineClass detaches class from line n at where. It reports whether
// the line changed.
func (d *Document) RemoveLineClass(n int, where, class string) bool {
	if n < 0 || n >= len(d.lines) {
		return false
	}
	l := d.lines[n]
	i := slices.Index(l.classes[where], class)
	if i < 0 {
		return false
	}
	l.classes[where] = slices.Delete(l.classes[where], i, i+1)
	return true
}

// HasLineClass reports whether class is attached to line n at where.
func (d *Document) HasLineClass(n int, where, class string) bool {
	if n < 0 || n >= len(d.lines) {
		return false
	}
	return slices.Contains(d.lines[n].classes[where], class)
}

// LineInfo returns the text and classes of line n.
func (d *Document) LineInfo(n int) (LineInfo, error) {
	if n < 0 || n >= len(d.lines) {
		return LineInfo{}, ErrInvalidLine
	}
	l := d.lines[n]
	return LineInfo{
		Line:      n,
		Text:      l.text,
		WrapClass: strings.Join(l.classes[WhereWrap], " "),
		BgClass:   strings.Join(l.classes[WhereBackground], " "),
		TextClass: strings.Join(l.classes[WhereText], " "),
	}, nil
}
