package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ConfFileWatcher calls onChange whenever the OpenAL configuration file
// is written, created, renamed or removed. The parent directory is
// watched so that replaced files are noticed.
type ConfFileWatcher struct {
	path     string
	onChange func()

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConfFileWatcher creates a stopped watcher for path.
func NewConfFileWatcher(path string, onChange func()) *ConfFileWatcher {
	return &ConfFileWatcher{path: filepath.Clean(path), onChange: onChange}
}

// Start begins watching until ctx is cancelled or Stop is called.
func (w *ConfFileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.watcher = watcher
	w.done = make(chan struct{})
	go w.run(ctx, watcher, w.done)

	logrus.WithFields(logrus.Fields{
		"function": "ConfFileWatcher.Start",
		"path":     w.path,
	}).Debug("Watching OpenAL configuration")
	return nil
}

func (w *ConfFileWatcher) run(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"function": "ConfFileWatcher.run",
				"path":     event.Name,
				"op":       event.Op.String(),
			}).Info("OpenAL configuration changed")
			w.onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "ConfFileWatcher.run",
				"error":    err.Error(),
			}).Warn("File watcher error")
		}
	}
}

// Stop ends watching and waits for the watching goroutine.
func (w *ConfFileWatcher) Stop() error {
	w.mu.Lock()
	watcher, cancel, done := w.watcher, w.cancel, w.done
	w.watcher = nil
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	cancel()
	<-done
	return watcher.Close()
}
