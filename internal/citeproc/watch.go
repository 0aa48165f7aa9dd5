package citeproc

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/citemark/internal/logging"
)

// DefaultReloadDelay coalesces bursts of writes to a bibliography file.
const DefaultReloadDelay = 200 * time.Millisecond

// Watcher reloads a Library when one of its files changes.
//
// The containing directories are watched rather than the files, so that
// editors which save by renaming a temporary file are seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	lib      *Library
	files    map[string]bool
	delay    time.Duration
	onReload func(err error)
	logger   *logging.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching the library's files. onReload runs on the
// watcher's goroutine after every reload, with the Load error.
func NewWatcher(lib *Library, delay time.Duration, onReload func(err error), logger *logging.Logger) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	if logger == nil {
		logger = logging.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		lib:      lib,
		files:    make(map[string]bool),
		delay:    delay,
		onReload: onReload,
		logger:   logger.WithComponent("bibliography-watcher"),
		closeCh:  make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range lib.Paths() {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			w.logger.Debug("bibliography changed: %s", ev.Name)
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	err := w.lib.Load()
	if err != nil {
		w.logger.Warn("reload: %v", err)
	} else {
		w.logger.Info("reloaded %d entries", w.lib.Len())
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
