package app

import (
	"context"
	"errors"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/dshills/citemark/internal/loop"
	"github.com/dshills/citemark/internal/markup"
	"github.com/dshills/citemark/internal/overlay/citations"
	"github.com/dshills/citemark/internal/renderer"
)

// Save writes the document to its file atomically.
func (a *Application) Save() error {
	if a.path == "" {
		return ErrNoFilePath
	}
	if err := atomic.WriteFile(a.path, strings.NewReader(a.doc.Text())); err != nil {
		return &FileError{Op: "save", Path: a.path, Err: err}
	}
	a.modified = false
	a.logger.Info("saved %s", a.path)
	return nil
}

// Settle runs the event loop on the calling goroutine until every
// outstanding citation request has been applied.
func (a *Application) Settle(ctx context.Context) error {
	err := a.loop.Settle(ctx)
	if errors.Is(err, loop.ErrStopped) {
		return nil
	}
	return err
}

// Render annotates the whole document, waits for every citation to
// resolve and returns the result as text. It must not be called while the
// interactive session runs.
func (a *Application) Render(ctx context.Context, ansi bool) (string, error) {
	if a.running.Load() {
		return "", ErrAlreadyRunning
	}
	a.host.batch = true
	defer func() { a.host.batch = false }()

	a.doc.ScrollTo(0)
	a.doc.SetViewportHeight(a.doc.LineCount())
	a.refreshOverlays()
	if err := a.Settle(ctx); err != nil {
		return "", err
	}

	if a.citations != nil {
		snap := a.metrics.Snapshot()
		a.logger.Info("rendered %d citations (%d unresolved, %d scans)",
			len(a.citations.Annotations()), a.citations.Count(citations.Errored), snap.Scans)
	}
	if ansi {
		return renderer.ANSI(a.doc, a.theme), nil
	}
	return renderer.Plain(a.doc), nil
}

// Bibliography renders the references cited in the document, one entry
// per line, in order of first citation.
func (a *Application) Bibliography(ctx context.Context) (string, error) {
	if a.citations == nil {
		return "", nil
	}
	var keys []string
	seen := make(map[string]bool)
	for _, ann := range a.citations.Annotations() {
		for _, k := range ann.Request().Keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	if len(keys) == 0 {
		return "", nil
	}

	bib, err := a.client.Bibliography(ctx, keys)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, entry := range strings.Split(bib, "\n") {
		if text := markup.Plain(entry); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
