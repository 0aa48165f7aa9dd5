package editor

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/citemark/internal/markup"
)

// Segment is one displayed piece of a line: either document text or a
// widget standing in for a marked range.
type Segment struct {
	// From and To are the byte columns covered in the document.
	From, To int
	// Text is the displayed text with tabs expanded.
	Text string
	// Marker is set when the segment displays a widget.
	Marker *Marker
	// Col is the display column the segment starts at.
	Col int
	// Width is the display width in cells.
	Width int
}

// Widget returns the widget displayed by the segment, or nil.
func (s Segment) Widget() Widget {
	if s.Marker == nil {
		return nil
	}
	return s.Marker.Widget()
}

// Layout splits line n into display segments.
func (d *Document) Layout(n int) []Segment {
	if n < 0 || n >= len(d.lines) {
		return nil
	}
	text := d.lines[n].text
	var segs []Segment
	col, at := 0, 0
	for _, m := range d.marksOnLine(n) {
		if m.from.Ch > at {
			seg := d.textSegment(text, at, m.from.Ch, col)
			segs = append(segs, seg)
			col += seg.Width
		}
		shown := markup.Plain(m.opts.ReplacedWith.Content())
		w := uniseg.StringWidth(shown)
		segs = append(segs, Segment{From: m.from.Ch, To: m.to.Ch, Text: shown, Marker: m, Col: col, Width: w})
		col += w
		at = m.to.Ch
	}
	if at < len(text) || len(segs) == 0 {
		segs = append(segs, d.textSegment(text, at, len(text), col))
	}
	return segs
}

func (d *Document) textSegment(text string, from, to, col int) Segment {
	out := make([]byte, 0, to-from)
	w := 0
	g := uniseg.NewGraphemes(text[from:to])
	for g.Next() {
		if g.Str() == "\t" {
			n := d.tabWidth - (col+w)%d.tabWidth
			for range n {
				out = append(out, ' ')
			}
			w += n
			continue
		}
		out = append(out, g.Str()...)
		w += g.Width()
	}
	return Segment{From: from, To: to, Text: string(out), Col: col, Width: w}
}

// DisplayWidth returns the display width of line n.
func (d *Document) DisplayWidth(n int) int {
	w := 0
	for _, s := range d.Layout(n) {
		w += s.Width
	}
	return w
}

// CoordsChar maps a screen cell to a document position. y is relative to
// the top of the viewport. A cell over a widget maps to the widget's
// start; a cell past the end of a line maps to the line end.
func (d *Document) CoordsChar(x, y int) Pos {
	line := d.viewTop + y
	if line < 0 {
		return Pos{}
	}
	if line >= len(d.lines) {
		return d.EndPos()
	}
	if x < 0 {
		x = 0
	}
	seg, ok := d.segmentAt(line, x)
	if !ok {
		return Pos{Line: line, Ch: len(d.lines[line].text)}
	}
	if seg.Marker != nil {
		return Pos{Line: line, Ch: seg.From}
	}
	return Pos{Line: line, Ch: d.columnAt(d.lines[line].text, seg, x)}
}

// CharCoords maps a document position to a screen cell relative to the
// viewport. ok is false when the line is not visible.
func (d *Document) CharCoords(p Pos) (x, y int, ok bool) {
	from, to := d.Viewport()
	if p.Line < from || p.Line >= to {
		return 0, 0, false
	}
	p = d.ClipPos(p)
	text := d.lines[p.Line].text
	segs := d.Layout(p.Line)
	for i, seg := range segs {
		if p.Ch > seg.To || (p.Ch == seg.To && i < len(segs)-1) {
			continue
		}
		switch {
		case seg.Marker != nil && p.Ch == seg.To:
			return seg.Col + seg.Width, p.Line - from, true
		case seg.Marker != nil:
			return seg.Col, p.Line - from, true
		}
		w := d.textSegment(text, seg.From, p.Ch, seg.Col).Width
		return seg.Col + w, p.Line - from, true
	}
	return 0, p.Line - from, true
}

func (d *Document) segmentAt(line, x int) (Segment, bool) {
	for _, seg := range d.Layout(line) {
		if x >= seg.Col && x < seg.Col+seg.Width {
			return seg, true
		}
	}
	return Segment{}, false
}

// columnAt returns the byte column of the grapheme under display column x
// within a text segment.
func (d *Document) columnAt(text string, seg Segment, x int) int {
	col := seg.Col
	at := seg.From
	g := uniseg.NewGraphemes(text[seg.From:seg.To])
	for g.Next() {
		w := g.Width()
		if g.Str() == "\t" {
			w = d.tabWidth - col%d.tabWidth
		}
		if x < col+w {
			return at
		}
		col += w
		at += len(g.Str())
	}
	return seg.To
}

// Click handles a mouse click at a screen cell, y relative to the
// viewport. A click on a clickable widget is delivered to the widget;
// anywhere else moves the cursor and focuses the document.
func (d *Document) Click(x, y int) {
	line := d.viewTop + y
	if line >= 0 && line < len(d.lines) {
		if seg, ok := d.segmentAt(line, x); ok && seg.Marker != nil {
			if c, ok := seg.Widget().(Clickable); ok {
				c.Click(x, y)
				return
			}
		}
	}
	d.SetCursor(d.CoordsChar(x, y))
	d.Focus()
}
