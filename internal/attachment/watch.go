package attachment

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a single attached file. It watches the parent
// directory so editors that replace the file on save are seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *log.Logger
}

// Watch starts watching path.
func Watch(path string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.WithPrefix("attachment")
	}
	abs, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Debug("watching attachment", "path", abs)
	return &Watcher{path: abs, watcher: w, logger: logger}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Next blocks until the file is written or recreated. It returns false when
// the watcher is closed or ctx is done.
func (w *Watcher) Next(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-w.watcher.Events:
			if !ok {
				return false
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("attachment changed", "file", event.Name, "event", event.Op)
			return true
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return false
			}
			w.logger.Debug("fsnotify error", "path", w.path, "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
