package renderer

import (
	"strings"

	"github.com/dshills/citemark/internal/editor"
)

// Plain returns the whole document as displayed, with widgets replaced by
// their text.
func Plain(doc *editor.Document) string {
	return render(doc, DefaultTheme(), false)
}

// ANSI returns the whole document as displayed, styled with ANSI escape
// sequences.
func ANSI(doc *editor.Document, theme Theme) string {
	return render(doc, theme, true)
}

func render(doc *editor.Document, theme Theme, ansi bool) string {
	var b strings.Builder
	for n := 0; n < doc.LineCount(); n++ {
		if n > 0 {
			b.WriteByte('\n')
		}
		current := DefaultStyle()
		for _, c := range theme.lineCells(doc, n) {
			if ansi && c.style != current {
				b.WriteString(c.style.SGR())
				current = c.style
			}
			b.WriteString(c.text)
		}
		if ansi && current != DefaultStyle() {
			b.WriteString("\x1b[0m")
		}
	}
	return b.String()
}
