// Package app wires citemark's components together: configuration,
// logging, the document, the event loop, the citation provider and the
// overlay engines. It runs either as an interactive terminal editor or as
// a one-shot renderer.
package app

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/dshills/citemark/internal/citeproc"
	"github.com/dshills/citemark/internal/config"
	"github.com/dshills/citemark/internal/editor"
	"github.com/dshills/citemark/internal/logging"
	"github.com/dshills/citemark/internal/loop"
	"github.com/dshills/citemark/internal/overlay/citations"
	"github.com/dshills/citemark/internal/overlay/taskitems"
	"github.com/dshills/citemark/internal/renderer"
)

// Application is the central coordinator for all citemark components.
type Application struct {
	opts    Options
	cfg     config.Config
	logger  *logging.Logger
	loop    *loop.Loop
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// Document
	doc      *editor.Document
	host     *overlayHost
	path     string
	modified bool

	// Citation provider
	provider citeproc.Invoker
	client   *citeproc.Client
	library  *citeproc.Library
	watcher  *citeproc.Watcher

	// Overlays
	citations *citations.Engine
	tasks     *taskitems.Annotator
	theme     renderer.Theme

	// Interactive session
	running     atomic.Bool
	drawPending bool
	quitArmed   bool
	message     string
	draw        func()

	closers []func() error
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. It may be empty.
	ConfigPath string

	// File is the Markdown document to open. A missing file starts empty.
	File string

	// Library adds bibliography files to those in the configuration.
	Library []string

	// LogLevel overrides the configured logging level.
	LogLevel string

	// LogOutput receives logs when no log file is configured. Stderr is
	// used when both are unset.
	LogOutput io.Writer

	// Provider, when set, is used instead of starting one from the
	// configuration.
	Provider citeproc.Invoker
}

// New creates an Application and starts its components.
func New(opts Options) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		metrics: NewMetrics(),
	}
	if err := a.bootstrap(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger {
	return a.logger
}

// Document returns the open document.
func (a *Application) Document() *editor.Document {
	return a.doc
}

// Citations returns the citation overlay engine, or nil when disabled.
func (a *Application) Citations() *citations.Engine {
	return a.citations
}

// Metrics returns the activity counters.
func (a *Application) Metrics() *Metrics {
	return a.metrics
}

// Modified reports whether the document changed since it was loaded or
// saved.
func (a *Application) Modified() bool {
	return a.modified
}

// Close stops every component. It is safe to call more than once.
func (a *Application) Close() {
	if a.loop != nil {
		a.loop.Stop()
	}
	a.cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("shutdown: %v", err)
		}
	}
	a.closers = nil
}
