package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/citemark/internal/loop"
	"github.com/dshills/citemark/internal/overlay/citations"
	"github.com/dshills/citemark/internal/renderer"
)

// Run runs the interactive editor on screen until the user quits or ctx
// is done. The caller initializes and finalizes the screen. Run may only
// be called once.
func (a *Application) Run(ctx context.Context, screen tcell.Screen) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	screen.EnableMouse()
	screen.EnablePaste()

	r := renderer.New(screen, a.doc, a.theme)
	r.SetStatus(a.status)
	a.draw = func() {
		a.drawPending = false
		start := time.Now()
		r.Draw()
		a.metrics.RecordFrame(time.Since(start))
	}
	a.doc.OnRedraw(a.scheduleDraw)
	a.doc.Focus()
	r.Resize()
	a.scheduleDraw()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)
	go func() {
		for ev := range events {
			a.loop.Post(func() { a.handleEvent(r, screen, ev) })
		}
	}()

	err := a.loop.Run(ctx)
	snap := a.metrics.Snapshot()
	a.logger.Debug("session ended after %s: %d frames, avg %s, max %s",
		snap.Uptime.Round(time.Second), snap.Frames, snap.AvgFrame, snap.MaxFrame)
	if errors.Is(err, loop.ErrStopped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Application) handleEvent(r *renderer.Renderer, screen tcell.Screen, ev tcell.Event) {
	err := a.handle(r, screen, ev)
	switch {
	case errors.Is(err, ErrQuit):
		a.loop.Stop()
		return
	case err != nil:
		a.logger.Warn("%v", err)
		a.setMessage(err.Error())
	}
	a.scheduleDraw()
}

// scheduleDraw queues one redraw for the loop, coalescing repeated calls.
func (a *Application) scheduleDraw() {
	if a.draw == nil || a.drawPending {
		return
	}
	a.drawPending = true
	a.loop.Post(a.draw)
}

func (a *Application) setMessage(msg string) {
	a.message = msg
	a.scheduleDraw()
}

// status returns the status line text.
func (a *Application) status() string {
	cur := a.doc.Cursor()
	mod := ""
	if a.modified {
		mod = " [+]"
	}
	s := fmt.Sprintf(" %s%s  %d:%d", a.displayName(), mod, cur.Line+1, cur.Ch+1)
	if a.citations != nil {
		s += fmt.Sprintf("  cites %d ok %d pending %d failed",
			a.citations.Count(citations.Resolved), a.citations.Count(citations.Pending), a.citations.Count(citations.Errored))
	}
	if a.message != "" {
		s += "  " + a.message
	}
	return s
}
