package editor

import "sort"

// MarkOptions configures a marker.
type MarkOptions struct {
	// ClearOnEnter removes the marker when the cursor moves inside it.
	ClearOnEnter bool
	// ReplacedWith displays a widget in place of the marked text.
	ReplacedWith Widget
	// InclusiveLeft makes insertions at the start extend the marker.
	InclusiveLeft bool
	// InclusiveRight makes insertions at the end extend the marker.
	InclusiveRight bool
}

// Marker is a live range of text. It tracks edits until it is cleared.
type Marker struct {
	doc     *Document
	from    Pos
	to      Pos
	opts    MarkOptions
	cleared bool
	changed int
}

// MarkText creates a marker over [from, to). The range must be non-empty
// and must not overlap an existing marker.
func (d *Document) MarkText(from, to Pos, opts MarkOptions) (*Marker, error) {
	if !d.validPos(from) || !d.validPos(to) {
		return nil, ErrInvalidPosition
	}
	if !from.Before(to) {
		return nil, ErrEmptyRange
	}
	if opts.ReplacedWith != nil && from.Line != to.Line {
		return nil, ErrMultiLineWidget
	}
	for _, m := range d.markers {
		if m.from.Before(to) && m.to.After(from) {
			return nil, ErrMarkOverlap
		}
	}

	m := &Marker{doc: d, from: from, to: to, opts: opts}
	i := sort.Search(len(d.markers), func(i int) bool {
		return !d.markers[i].from.Before(from)
	})
	d.markers = append(d.markers, nil)
	copy(d.markers[i+1:], d.markers[i:])
	d.markers[i] = m

	if opts.ReplacedWith != nil {
		opts.ReplacedWith.Mounted(m)
	}
	d.emitRedraw()
	return m, nil
}

// FindMarks returns the markers overlapping [from, to), plus any marker
// whose range equals it exactly. A point query (from == to) returns the
// markers strictly containing the point.
func (d *Document) FindMarks(from, to Pos) []*Marker {
	var out []*Marker
	for _, m := range d.markers {
		exact := m.from == from && m.to == to
		if exact || (m.from.Before(to) && m.to.After(from)) {
			out = append(out, m)
		}
	}
	return out
}

// AllMarks returns every live marker in document order.
func (d *Document) AllMarks() []*Marker {
	return append([]*Marker(nil), d.markers...)
}

// marksOnLine returns the replacing markers on line n in column order.
func (d *Document) marksOnLine(n int) []*Marker {
	var out []*Marker
	for _, m := range d.markers {
		if m.from.Line > n {
			break
		}
		if m.from.Line == n && m.opts.ReplacedWith != nil {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the current range of the marker. ok is false once the
// marker has been cleared.
func (m *Marker) Find() (from, to Pos, ok bool) {
	if m.cleared {
		return Pos{}, Pos{}, false
	}
	return m.from, m.to, true
}

// Widget returns the replacement widget, or nil.
func (m *Marker) Widget() Widget {
	return m.opts.ReplacedWith
}

// Cleared reports whether the marker has been removed.
func (m *Marker) Cleared() bool {
	return m.cleared
}

// Changed tells the document that the widget's content changed and the
// line must be measured again.
func (m *Marker) Changed() {
	if m.cleared {
		return
	}
	m.changed++
	m.doc.emitRedraw()
}

// ChangedCount returns how many times Changed has been called.
func (m *Marker) ChangedCount() int {
	return m.changed
}

// Clear removes the marker. Clearing twice is a no-op.
func (m *Marker) Clear() {
	m.clear()
}

func (m *Marker) clear() {
	if m.cleared {
		return
	}
	m.cleared = true
	d := m.doc
	for i, other := range d.markers {
		if other == m {
			d.markers = append(d.markers[:i], d.markers[i+1:]...)
			break
		}
	}
	if w := m.opts.ReplacedWith; w != nil {
		w.Mounted(nil)
	}
	d.emitRedraw()
}

// enters reports whether p lies inside the marker.
func (m *Marker) enters(p Pos) bool {
	if m.from.Before(p) && m.to.After(p) {
		return true
	}
	return (m.opts.InclusiveLeft && p == m.from) || (m.opts.InclusiveRight && p == m.to)
}

func (d *Document) adjustMarkers(c Change) {
	var doomed []*Marker
	for _, m := range d.markers {
		switch {
		case c.IsInsert() && c.From == m.from && m.opts.InclusiveLeft:
			m.to = c.mapAfter(m.to)
		case !c.To.After(m.from):
			m.from = c.mapAfter(m.from)
			m.to = c.mapAfter(m.to)
		case c.IsInsert() && c.From == m.to && m.opts.InclusiveRight:
			m.to = c.mapAfter(m.to)
		case !c.From.Before(m.to):
		default:
			doomed = append(doomed, m)
		}
	}
	for _, m := range doomed {
		m.clear()
	}
}
