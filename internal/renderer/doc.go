// Package renderer draws a citemark document.
//
// The renderer walks the document's layout for each visible line. Text
// segments are styled by their highlight token and by the line's classes;
// widget segments show the widget's markup, styled by the widget's classes.
//
//	screen, _ := tcell.NewScreen()
//	r := renderer.New(screen, doc, theme)
//	r.Draw()
//
// Plain and ANSI produce the same output as text for non-interactive use.
package renderer
