package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/vinayprograms/agentkit/logging"
)

// Watcher reloads the single config file it was given (swarm.toml)
// whenever it changes on disk; no other files are watched. It hands the freshly parsed
// Config to onReload. Parse failures are logged and the previous
// Config stays in effect — a bad edit never tears down a running
// coordinator.
type Watcher struct {
	path     string
	onReload func(*Config)
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
}

// WatchFile starts watching path for changes, invoking onReload with
// each successfully parsed Config. Call Close to stop watching.
func WatchFile(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onReload: onReload,
		logger:   logging.New().WithComponent("config-watcher"),
		watcher:  fw,
	}
	return w, nil
}

// Run blocks, dispatching reloads until ctx is cancelled or Close is
// called.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadFile(w.path)
			if err != nil {
				w.logger.Error("config reload failed, keeping previous configuration", map[string]interface{}{
					"path":  w.path,
					"error": err.Error(),
				})
				continue
			}
			w.logger.Info("configuration reloaded", map[string]interface{}{"path": w.path})
			w.onReload(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
