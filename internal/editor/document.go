package editor

import (
	"strings"

	"github.com/dshills/citemark/internal/highlight"
)

// DefaultZone is the mode reported for prose lines.
const DefaultZone = "markdown"

type lineData struct {
	text    string
	classes map[string][]string
}

// Document is an in-memory text document acting as the host editor.
type Document struct {
	lines []*lineData

	cursor  Pos
	focused bool

	viewTop    int
	viewHeight int
	tabWidth   int

	markers []*Marker

	hl      *highlight.Markdown
	hlCache []highlight.Line

	refreshes int

	changeListeners   []func(Change)
	cursorListeners   []func()
	viewportListeners []func(from, to int)
	redrawListeners   []func()
}

// Option configures a Document.
type Option func(*Document)

// WithTabWidth sets the display width of a tab stop.
func WithTabWidth(n int) Option {
	return func(d *Document) {
		if n > 0 {
			d.tabWidth = n
		}
	}
}

// WithZone sets the mode name reported for prose lines.
func WithZone(zone string) Option {
	return func(d *Document) {
		d.hl = highlight.NewMarkdown(zone)
	}
}

// WithViewportHeight sets the number of visible lines.
func WithViewportHeight(n int) Option {
	return func(d *Document) {
		d.viewHeight = n
	}
}

// New creates a document holding text. Lines are split on "\n"; a trailing
// "\r" is kept as part of the line.
func New(text string, opts ...Option) *Document {
	d := &Document{
		tabWidth:   4,
		viewHeight: 50,
		hl:         highlight.NewMarkdown(DefaultZone),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, l := range strings.Split(text, "\n") {
		d.lines = append(d.lines, &lineData{text: l})
	}
	return d
}

// Text returns the full document text.
func (d *Document) Text() string {
	parts := make([]string, len(d.lines))
	for i, l := range d.lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns the text of line n, or "" when n is out of range.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.lines) {
		return ""
	}
	return d.lines[n].text
}

// TabWidth returns the tab stop width.
func (d *Document) TabWidth() int {
	return d.tabWidth
}

// ClipPos returns the nearest valid position to p.
func (d *Document) ClipPos(p Pos) Pos {
	if p.Line < 0 {
		return Pos{}
	}
	if p.Line >= len(d.lines) {
		last := len(d.lines) - 1
		return Pos{Line: last, Ch: len(d.lines[last].text)}
	}
	if p.Ch < 0 {
		p.Ch = 0
	}
	if n := len(d.lines[p.Line].text); p.Ch > n {
		p.Ch = n
	}
	return p
}

func (d *Document) validPos(p Pos) bool {
	return p.Line >= 0 && p.Line < len(d.lines) && p.Ch >= 0 && p.Ch <= len(d.lines[p.Line].text)
}

// EndPos returns the position after the last character.
func (d *Document) EndPos() Pos {
	last := len(d.lines) - 1
	return Pos{Line: last, Ch: len(d.lines[last].text)}
}

// Range returns the text between from and to.
func (d *Document) Range(from, to Pos) (string, error) {
	if !d.validPos(from) || !d.validPos(to) || to.Before(from) {
		return "", ErrInvalidPosition
	}
	return strings.Join(d.rangeLines(from, to), "\n"), nil
}

func (d *Document) rangeLines(from, to Pos) []string {
	if from.Line == to.Line {
		return []string{d.lines[from.Line].text[from.Ch:to.Ch]}
	}
	out := []string{d.lines[from.Line].text[from.Ch:]}
	for i := from.Line + 1; i < to.Line; i++ {
		out = append(out, d.lines[i].text)
	}
	return append(out, d.lines[to.Line].text[:to.Ch])
}

// Replace replaces the text between from and to with text.
//
// Markers after the edit shift with it; markers before it stay.
// A marker whose interior the edit touches is cleared. An insertion at a
// marker boundary stays outside the marker unless that side is inclusive.
func (d *Document) Replace(from, to Pos, text string) error {
	if !d.validPos(from) || !d.validPos(to) || to.Before(from) {
		return ErrInvalidPosition
	}

	change := Change{
		From:    from,
		To:      to,
		Text:    strings.Split(text, "\n"),
		Removed: d.rangeLines(from, to),
	}
	if change.IsInsert() && text == "" {
		return nil
	}

	d.applyLines(change)
	d.invalidateHighlight(from.Line)
	d.adjustMarkers(change)

	oldCursor := d.cursor
	switch {
	case !d.cursor.Before(to):
		d.cursor = change.mapAfter(d.cursor)
	case d.cursor.After(from):
		d.cursor = change.End()
	}

	for _, fn := range d.changeListeners {
		fn(change)
	}
	if d.cursor != oldCursor {
		d.emitCursor()
	}
	return nil
}

// Insert inserts text at p.
func (d *Document) Insert(p Pos, text string) error {
	return d.Replace(p, p, text)
}

// Delete removes the text between from and to.
func (d *Document) Delete(from, to Pos) error {
	return d.Replace(from, to, "")
}

func (d *Document) applyLines(c Change) {
	first := d.lines[c.From.Line]
	prefix := first.text[:c.From.Ch]
	suffix := d.lines[c.To.Line].text[c.To.Ch:]

	replacement := make([]*lineData, len(c.Text))
	for i, t := range c.Text {
		replacement[i] = &lineData{text: t}
	}
	// The first line keeps its identity so line classes survive edits to it.
	first.text = c.Text[0]
	replacement[0] = first
	replacement[0].text = prefix + replacement[0].text
	last := replacement[len(replacement)-1]
	last.text += suffix

	tail := append([]*lineData(nil), d.lines[c.To.Line+1:]...)
	d.lines = append(append(d.lines[:c.From.Line], replacement...), tail...)
}

// Cursor returns the cursor position.
func (d *Document) Cursor() Pos {
	return d.cursor
}

// SetCursor moves the cursor, clipping it to the document. Markers with
// ClearOnEnter whose interior now holds the cursor are cleared.
func (d *Document) SetCursor(p Pos) {
	p = d.ClipPos(p)
	for _, m := range append([]*Marker(nil), d.markers...) {
		if m.opts.ClearOnEnter && m.enters(p) {
			m.clear()
		}
	}
	if p == d.cursor {
		return
	}
	d.cursor = p
	d.emitCursor()
}

// Focus gives the document input focus.
func (d *Document) Focus() {
	d.focused = true
}

// Blur removes input focus.
func (d *Document) Blur() {
	d.focused = false
}

// HasFocus reports whether the document has input focus.
func (d *Document) HasFocus() bool {
	return d.focused
}

// Viewport returns the visible line range [from, to).
func (d *Document) Viewport() (from, to int) {
	to = d.viewTop + d.viewHeight
	if to > len(d.lines) {
		to = len(d.lines)
	}
	return d.viewTop, to
}

// ViewportHeight returns the number of visible lines.
func (d *Document) ViewportHeight() int {
	return d.viewHeight
}

// SetViewportHeight changes the number of visible lines.
func (d *Document) SetViewportHeight(n int) {
	if n < 1 {
		n = 1
	}
	if n == d.viewHeight {
		return
	}
	d.viewHeight = n
	d.emitViewport()
}

// ScrollTo makes top the first visible line.
func (d *Document) ScrollTo(top int) {
	if max := len(d.lines) - 1; top > max {
		top = max
	}
	if top < 0 {
		top = 0
	}
	if top == d.viewTop {
		return
	}
	d.viewTop = top
	d.emitViewport()
}

// ScrollIntoView scrolls so that p is visible with margin lines around it.
func (d *Document) ScrollIntoView(p Pos, margin int) {
	if margin*2 >= d.viewHeight {
		margin = (d.viewHeight - 1) / 2
	}
	switch {
	case p.Line < d.viewTop+margin:
		d.ScrollTo(p.Line - margin)
	case p.Line >= d.viewTop+d.viewHeight-margin:
		d.ScrollTo(p.Line - d.viewHeight + margin + 1)
	}
}

// ModeAt returns the zone tag of the line holding p.
func (d *Document) ModeAt(p Pos) string {
	if p.Line < 0 || p.Line >= len(d.lines) {
		return ""
	}
	return d.highlighted(p.Line).Mode
}

// TokenTypeAt returns the token class of the character before p, or of the
// character at p when p is at the start of a line. Unclassified text
// returns "".
func (d *Document) TokenTypeAt(p Pos) string {
	if !d.validPos(p) {
		return ""
	}
	col := p.Ch - 1
	if col < 0 {
		col = 0
	}
	tok, ok := d.highlighted(p.Line).TokenAt(col)
	if !ok {
		return ""
	}
	return tok.Type.String()
}

// Tokens returns the classified tokens of line n.
func (d *Document) Tokens(n int) []highlight.Token {
	if n < 0 || n >= len(d.lines) {
		return nil
	}
	return d.highlighted(n).Tokens
}

func (d *Document) highlighted(n int) highlight.Line {
	for len(d.hlCache) <= n {
		i := len(d.hlCache)
		prev := highlight.LexerState{}
		if i > 0 {
			prev = d.hlCache[i-1].State
		}
		d.hlCache = append(d.hlCache, d.hl.HighlightLine(i, d.lines[i].text, prev))
	}
	return d.hlCache[n]
}

func (d *Document) invalidateHighlight(from int) {
	if from < len(d.hlCache) {
		d.hlCache = d.hlCache[:from]
	}
}

// Refresh forces a full re-layout and redraw.
func (d *Document) Refresh() {
	d.refreshes++
	d.emitRedraw()
}

// RefreshCount returns how many times Refresh has been called.
func (d *Document) RefreshCount() int {
	return d.refreshes
}

// OnChange registers a listener for text changes.
func (d *Document) OnChange(fn func(Change)) {
	d.changeListeners = append(d.changeListeners, fn)
}

// OnCursorActivity registers a listener for cursor movement.
func (d *Document) OnCursorActivity(fn func()) {
	d.cursorListeners = append(d.cursorListeners, fn)
}

// OnViewportChange registers a listener for scrolling and resizing.
func (d *Document) OnViewportChange(fn func(from, to int)) {
	d.viewportListeners = append(d.viewportListeners, fn)
}

// OnRedraw registers a listener called whenever the display is stale:
// after Refresh, Marker.Changed and marker removal.
func (d *Document) OnRedraw(fn func()) {
	d.redrawListeners = append(d.redrawListeners, fn)
}

func (d *Document) emitCursor() {
	for _, fn := range d.cursorListeners {
		fn()
	}
}

func (d *Document) emitViewport() {
	from, to := d.Viewport()
	for _, fn := range d.viewportListeners {
		fn(from, to)
	}
}

func (d *Document) emitRedraw() {
	for _, fn := range d.redrawListeners {
		fn()
	}
}
