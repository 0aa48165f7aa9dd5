package renderer

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/citemark/internal/editor"
)

// Renderer draws a document's viewport on a tcell screen.
type Renderer struct {
	screen tcell.Screen
	doc    *editor.Document
	theme  Theme
	status func() string
}

// New creates a renderer.
func New(screen tcell.Screen, doc *editor.Document, theme Theme) *Renderer {
	return &Renderer{screen: screen, doc: doc, theme: theme}
}

// SetStatus enables a status line on the last screen row showing fn's
// result.
func (r *Renderer) SetStatus(fn func() string) {
	r.status = fn
}

// textHeight returns the number of rows available for document lines.
func (r *Renderer) textHeight() int {
	_, h := r.screen.Size()
	if r.status != nil {
		h--
	}
	return max(h, 1)
}

// Resize fits the document viewport to the screen.
func (r *Renderer) Resize() {
	r.doc.SetViewportHeight(r.textHeight())
}

// Draw redraws the viewport, the status line and the cursor, then shows
// the screen.
func (r *Renderer) Draw() {
	r.screen.Clear()
	width, height := r.screen.Size()
	rows := r.textHeight()

	from, to := r.doc.Viewport()
	for n := from; n < to && n-from < rows; n++ {
		r.drawCells(n-from, width, r.theme.lineCells(r.doc, n))
	}

	if r.status != nil && height > 0 {
		r.drawStatus(height-1, width)
	}

	if x, y, ok := r.doc.CharCoords(r.doc.Cursor()); ok && r.doc.HasFocus() && x < width && y < rows {
		r.screen.ShowCursor(x, y)
	} else {
		r.screen.HideCursor()
	}
	r.screen.Show()
}

func (r *Renderer) drawCells(y, width int, cells []cell) {
	x := 0
	for _, c := range cells {
		if x+c.width > width {
			return
		}
		runes := []rune(c.text)
		r.screen.SetContent(x, y, runes[0], runes[1:], c.style.Tcell())
		x += c.width
	}
}

func (r *Renderer) drawStatus(y, width int) {
	style := r.theme.Status
	cells := textCells(r.status(), style)
	used := 0
	for _, c := range cells {
		used += c.width
	}
	for ; used < width; used++ {
		cells = append(cells, cell{text: " ", width: 1, style: style})
	}
	r.drawCells(y, width, cells)
}
