package renderer

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/citemark/internal/editor"
	"github.com/dshills/citemark/internal/markup"
)

// cell is one grapheme cluster to display.
type cell struct {
	text  string
	width int
	style Style
}

// lineCells lays out line n of doc as styled cells.
func (t Theme) lineCells(doc *editor.Document, n int) []cell {
	base := t.Text
	if info, err := doc.LineInfo(n); err == nil && hasClass(info.WrapClass, t.DoneClass) {
		base = base.Merge(t.Done)
	}

	line := doc.Line(n)
	tokens := doc.Tokens(n)
	tab := doc.TabWidth()

	var out []cell
	col := 0
	for _, seg := range doc.Layout(n) {
		if w := seg.Widget(); w != nil {
			out = append(out, t.widgetCells(w, base, seg.Width)...)
			col += seg.Width
			continue
		}
		at := seg.From
		g := uniseg.NewGraphemes(line[seg.From:seg.To])
		for g.Next() {
			s := g.Str()
			style := base.Merge(t.tokenStyle(tokens, at))
			at += len(s)
			if s == "\t" {
				for k := tab - col%tab; k > 0; k-- {
					out = append(out, cell{text: " ", width: 1, style: style})
					col++
				}
				continue
			}
			w := g.Width()
			out = append(out, cell{text: s, width: w, style: style})
			col += w
		}
	}
	return out
}

// widgetCells lays out a widget's markup in at most width cells, matching
// the trimmed plain text the document measures it by.
func (t Theme) widgetCells(w editor.Widget, base Style, width int) []cell {
	style := base.Merge(t.Citation)
	if c, ok := w.(editor.Classed); ok && containsField(c.Classes(), t.ErrorClass) {
		style = style.Merge(t.Error)
	}

	var out []cell
	used := 0
	leading := true
	for _, run := range markup.Parse(w.Content()) {
		g := uniseg.NewGraphemes(run.Text)
		for g.Next() {
			s := g.Str()
			if leading && strings.TrimSpace(s) == "" {
				continue
			}
			leading = false
			cw := g.Width()
			if used+cw > width {
				return out
			}
			out = append(out, cell{text: s, width: cw, style: style.withMarkup(run.Style)})
			used += cw
		}
	}
	return out
}

// textCells lays out plain text in one style.
func textCells(s string, style Style) []cell {
	var out []cell
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, cell{text: g.Str(), width: g.Width(), style: style})
	}
	return out
}
