package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dshills/citemark/internal/citeproc"
	"github.com/dshills/citemark/internal/config"
	"github.com/dshills/citemark/internal/editor"
	"github.com/dshills/citemark/internal/logging"
	"github.com/dshills/citemark/internal/loop"
	"github.com/dshills/citemark/internal/overlay/citations"
	"github.com/dshills/citemark/internal/overlay/taskitems"
	"github.com/dshills/citemark/internal/renderer"
)

// bootstrap initializes all components in dependency order.
func (a *Application) bootstrap() error {
	// 1. Configuration
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	cfg.Citeproc.Library = append(cfg.Citeproc.Library, a.opts.Library...)
	if a.opts.LogLevel != "" {
		cfg.Logging.Level = a.opts.LogLevel
	}
	a.cfg = cfg

	// 2. Logging
	if err := a.initLogger(); err != nil {
		return &InitError{Component: "logging", Err: err}
	}

	// 3. Event loop
	a.loop = loop.New(a.logger)

	// 4. Document
	if err := a.openDocument(); err != nil {
		return err
	}

	// 5. Citation provider
	if err := a.initProvider(); err != nil {
		return &InitError{Component: "citeproc", Err: err}
	}

	// 6. Overlays
	if err := a.initOverlays(); err != nil {
		return err
	}

	a.logger.Info("opened %s (%d lines)", a.displayName(), a.doc.LineCount())
	return nil
}

func (a *Application) initLogger() error {
	level, err := logging.ParseLevel(a.cfg.Logging.Level)
	if err != nil {
		return err
	}
	var out io.Writer = os.Stderr
	switch {
	case a.cfg.Logging.File != "":
		f, err := os.OpenFile(a.cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f.Close)
		out = f
	case a.opts.LogOutput != nil:
		out = a.opts.LogOutput
	}
	a.logger = logging.New(logging.Config{Level: level, Output: out, Prefix: "citemark"})
	return nil
}

func (a *Application) openDocument() error {
	text := ""
	if a.opts.File != "" {
		data, err := os.ReadFile(a.opts.File)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			a.logger.Info("new file %s", a.opts.File)
		case err != nil:
			return &FileError{Op: "open", Path: a.opts.File, Err: err}
		default:
			text = string(data)
		}
	}
	a.path = a.opts.File
	a.doc = editor.New(text, editor.WithTabWidth(a.cfg.Editor.TabWidth), editor.WithZone(a.cfg.Citations.Zone))
	a.host = &overlayHost{Document: a.doc}
	a.doc.OnChange(func(editor.Change) { a.modified = true })
	return nil
}

func (a *Application) initProvider() error {
	if a.opts.Provider != nil {
		a.provider = a.opts.Provider
		a.client = citeproc.NewClient(a.provider)
		return nil
	}

	cc := a.cfg.Citeproc
	if len(cc.Command) > 0 {
		remote, err := citeproc.StartRemote(a.ctx, cc.Command, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, remote.Close)
		a.provider = remote
		a.client = citeproc.NewClient(remote)
		return nil
	}

	a.library = citeproc.NewLibrary(cc.Library...)
	if err := a.library.Load(); err != nil {
		a.logger.Warn("bibliography: %v", err)
	}
	a.logger.Info("loaded %d references from %d files", a.library.Len(), len(cc.Library))

	var formatter citeproc.Formatter
	if cc.FormatterScript != "" {
		lf, err := citeproc.LoadLuaFormatter(cc.FormatterScript, nil)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { lf.Close(); return nil })
		formatter = lf
	}
	a.provider = citeproc.NewService(a.library, formatter, a.logger)
	a.client = citeproc.NewClient(a.provider)

	if cc.Watch && len(cc.Library) > 0 {
		w, err := citeproc.NewWatcher(a.library, citeproc.DefaultReloadDelay, func(err error) {
			a.loop.Post(func() { a.libraryReloaded(err) })
		}, a.logger)
		if err != nil {
			a.logger.Warn("watch bibliography: %v", err)
			return nil
		}
		a.watcher = w
		a.closers = append(a.closers, w.Close)
	}
	return nil
}

func (a *Application) initOverlays() error {
	theme, err := renderer.NewTheme(a.cfg.Theme)
	if err != nil {
		return &InitError{Component: "theme", Err: err}
	}
	theme.ErrorClass = a.cfg.Citations.ErrorClass
	theme.DoneClass = a.cfg.TaskItems.Class
	a.theme = theme

	if a.cfg.Citations.Enabled {
		cc := a.cfg.Citations
		a.citations = citations.New(a.host, citations.NewLoopResolver(a.ctx, a.loop, a.client),
			citations.WithConfig(citations.Config{Zone: cc.Zone, Class: cc.Class, ErrorClass: cc.ErrorClass}),
			citations.WithLogger(a.logger),
			citations.WithScanHook(a.metrics.RecordScan),
		)
		a.citations.Subscribe(a.doc)
	}
	if a.cfg.TaskItems.Enabled {
		a.tasks = taskitems.New(a.doc, a.cfg.TaskItems.Class, a.logger)
		a.tasks.Subscribe(a.doc)
	}
	a.refreshOverlays()
	return nil
}

// refreshOverlays runs both overlays once outside of any notification.
func (a *Application) refreshOverlays() {
	if a.citations != nil {
		a.citations.RenderVisible()
	}
	if a.tasks != nil {
		a.tasks.Apply()
	}
}

// libraryReloaded runs on the loop after the bibliography changed on disk.
// Citations that failed may resolve now, so they are requested again.
func (a *Application) libraryReloaded(err error) {
	if err != nil {
		a.logger.Warn("reload bibliography: %v", err)
	}
	if a.citations == nil {
		return
	}
	if n := a.citations.ClearErrored(); n > 0 {
		a.logger.Info("retrying %d unresolved citations", n)
	}
	a.citations.RenderVisible()
	if a.library != nil {
		a.setMessage(fmt.Sprintf("bibliography reloaded (%d references)", a.library.Len()))
	} else {
		a.setMessage("bibliography reloaded")
	}
}

func (a *Application) displayName() string {
	if a.path == "" {
		return "[scratch]"
	}
	return a.path
}
