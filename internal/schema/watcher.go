package schema

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the schema directory and processes
// manifest change events until ctx is cancelled. It calls cb after each
// store mutation, which is how factory-cache invalidation is driven.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced Sync pass, because fsnotify only reports the
// old path of a rename.
func Watch(ctx context.Context, store *Store, dir string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir); err != nil {
		return err
	}

	logger.Info("schema watcher: started", slog.String("dir", dir))

	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(200 * time.Millisecond)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			logger.Info("schema watcher: stopped")
			return nil

		case <-syncCh:
			if err := Sync(store, dir, logger, cb); err != nil {
				logger.Warn("schema watcher: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list; any manifests already
			// inside them are picked up by a sync pass.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("schema watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					scheduleSync()
					continue
				}
			}

			if !isManifestPath(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(dir, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(absPath)
				if readErr != nil {
					logger.Warn("schema watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if loadErr := LoadFile(store, rel, data, logger, cb); loadErr != nil {
					logger.Warn("schema watcher: load failed", slog.String("path", rel), slog.String("error", loadErr.Error()))
					continue
				}
				logger.Debug("schema watcher: loaded", slog.String("path", rel))

			case ev.Op&fsnotify.Remove != 0:
				if rmErr := RemoveFile(store, rel, logger, cb); rmErr != nil {
					logger.Warn("schema watcher: remove failed", slog.String("path", rel), slog.String("error", rmErr.Error()))
					continue
				}
				logger.Debug("schema watcher: removed", slog.String("path", rel))

			case ev.Op&fsnotify.Rename != 0:
				if rmErr := RemoveFile(store, rel, logger, cb); rmErr != nil {
					logger.Warn("schema watcher: rename remove failed", slog.String("path", rel), slog.String("error", rmErr.Error()))
				}
				scheduleSync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("schema watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
