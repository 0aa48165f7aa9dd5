package app

import (
	"context"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/citemark/internal/editor"
	"github.com/dshills/citemark/internal/loop"
	"github.com/dshills/citemark/internal/renderer"
)

// wheelLines is the number of lines scrolled per mouse wheel step.
const wheelLines = 3

// handle processes one terminal event. It returns ErrQuit when the
// session should end.
func (a *Application) handle(r *renderer.Renderer, screen tcell.Screen, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		r.Resize()
		screen.Sync()
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	}
	return nil
}

func (a *Application) handleKey(ev *tcell.EventKey) error {
	doc := a.doc
	cur := doc.Cursor()
	quitArmed := a.quitArmed
	a.quitArmed = false
	a.message = ""

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		if a.modified && !quitArmed {
			a.quitArmed = true
			a.message = "unsaved changes; press Ctrl-Q again to quit"
			return nil
		}
		return ErrQuit
	case tcell.KeyCtrlS:
		if err := a.Save(); err != nil {
			return err
		}
		a.message = "saved"
	case tcell.KeyCtrlR:
		a.reloadBibliography()
	case tcell.KeyLeft:
		doc.SetCursor(a.left(cur))
	case tcell.KeyRight:
		doc.SetCursor(a.right(cur))
	case tcell.KeyUp:
		doc.SetCursor(a.vertical(cur, -1))
	case tcell.KeyDown:
		doc.SetCursor(a.vertical(cur, 1))
	case tcell.KeyPgUp:
		doc.SetCursor(a.vertical(cur, -doc.ViewportHeight()))
	case tcell.KeyPgDn:
		doc.SetCursor(a.vertical(cur, doc.ViewportHeight()))
	case tcell.KeyHome:
		doc.SetCursor(editor.Pos{Line: cur.Line})
	case tcell.KeyEnd:
		doc.SetCursor(editor.Pos{Line: cur.Line, Ch: len(doc.Line(cur.Line))})
	case tcell.KeyEnter:
		return a.insert("\n")
	case tcell.KeyTab:
		return a.insert("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if p := a.left(cur); p != cur {
			return a.remove(p, cur)
		}
	case tcell.KeyDelete:
		if p := a.right(cur); p != cur {
			return a.remove(cur, p)
		}
	case tcell.KeyRune:
		return a.insert(string(ev.Rune()))
	}
	doc.ScrollIntoView(doc.Cursor(), a.cfg.Editor.ScrollOff)
	return nil
}

func (a *Application) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	top, _ := a.doc.Viewport()
	switch btn := ev.Buttons(); {
	case btn&tcell.WheelUp != 0:
		a.doc.ScrollTo(top - wheelLines)
	case btn&tcell.WheelDown != 0:
		a.doc.ScrollTo(top + wheelLines)
	case btn&tcell.Button1 != 0:
		if y < a.doc.ViewportHeight() {
			a.doc.Click(x, y)
		}
	}
}

func (a *Application) insert(text string) error {
	if err := a.doc.Insert(a.doc.Cursor(), text); err != nil {
		return err
	}
	a.doc.ScrollIntoView(a.doc.Cursor(), a.cfg.Editor.ScrollOff)
	return nil
}

func (a *Application) remove(from, to editor.Pos) error {
	if err := a.doc.Delete(from, to); err != nil {
		return err
	}
	a.doc.ScrollIntoView(a.doc.Cursor(), a.cfg.Editor.ScrollOff)
	return nil
}

// left returns the position one character before p, or p at the start of
// the document.
func (a *Application) left(p editor.Pos) editor.Pos {
	if p.Ch > 0 {
		_, size := utf8.DecodeLastRuneInString(a.doc.Line(p.Line)[:p.Ch])
		return editor.Pos{Line: p.Line, Ch: p.Ch - size}
	}
	if p.Line > 0 {
		return editor.Pos{Line: p.Line - 1, Ch: len(a.doc.Line(p.Line - 1))}
	}
	return p
}

// right returns the position one character after p, or p at the end of
// the document.
func (a *Application) right(p editor.Pos) editor.Pos {
	line := a.doc.Line(p.Line)
	if p.Ch < len(line) {
		_, size := utf8.DecodeRuneInString(line[p.Ch:])
		return editor.Pos{Line: p.Line, Ch: p.Ch + size}
	}
	if p.Line+1 < a.doc.LineCount() {
		return editor.Pos{Line: p.Line + 1}
	}
	return p
}

// vertical moves p by n lines, keeping the column where the line allows.
func (a *Application) vertical(p editor.Pos, n int) editor.Pos {
	line := min(max(p.Line+n, 0), a.doc.LineCount()-1)
	text := a.doc.Line(line)
	ch := min(p.Ch, len(text))
	for ch > 0 && ch < len(text) && !utf8.RuneStart(text[ch]) {
		ch--
	}
	return editor.Pos{Line: line, Ch: ch}
}

// reloadBibliography asks the provider to re-read its files.
func (a *Application) reloadBibliography() {
	a.message = "reloading bibliography"
	loop.Go(a.loop, a.ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.client.Reload(ctx)
	}, func(_ struct{}, err error) {
		a.libraryReloaded(err)
	})
}
