package app

import (
	"github.com/dshills/citemark/internal/editor"
)

// overlayHost is the editor as seen by the citation engine. In batch mode
// there is no user, so the cursor never blocks a citation.
type overlayHost struct {
	*editor.Document
	batch bool
}

// Cursor returns the document cursor, or a position on no line in batch
// mode.
func (h *overlayHost) Cursor() editor.Pos {
	if h.batch {
		return editor.Pos{Line: -1}
	}
	return h.Document.Cursor()
}
