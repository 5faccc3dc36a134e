// Package watcher reloads the console configuration when the file changes on
// disk, so feature flags and log verbosity can be adjusted without
// restarting. Endpoint changes still need a restart.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/familyhelper-app/console/internal/config"
)

// debounceDelay coalesces the event bursts editors emit on save.
const debounceDelay = 250 * time.Millisecond

// Watcher monitors one config file and invokes the callback with each
// successfully reloaded snapshot.
type Watcher struct {
	configPath string
	onReload   func(*config.Config)

	mu      sync.Mutex
	timer   *time.Timer
	watcher *fsnotify.Watcher
}

// New creates a watcher for configPath. onReload runs on the watcher
// goroutine; callbacks must not block.
func New(configPath string, onReload func(*config.Config)) *Watcher {
	return &Watcher{configPath: configPath, onReload: onReload}
}

// Start begins watching until ctx is cancelled. The parent directory is
// watched rather than the file itself so atomic save-and-rename editors keep
// working.
func (w *Watcher) Start(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsWatcher
	if err = fsWatcher.Add(filepath.Dir(w.configPath)); err != nil {
		_ = fsWatcher.Close()
		return err
	}

	go w.run(ctx)
	log.Debugf("watching %s for config changes", w.configPath)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		_ = w.watcher.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.WithError(err).Warn("config reload failed; keeping previous settings")
		return
	}
	log.Info("configuration reloaded")
	w.onReload(cfg)
}
