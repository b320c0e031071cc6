package store

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/source"
)

// EventCallback is called after a watcher-driven draft change.
// kind is one of "saved", "deleted".
type EventCallback func(kind, themeID, path string)

// Watch starts an fsnotify watcher on the themes source root and mirrors
// file changes into draft state until ctx is cancelled. The root contains
// one directory per theme; a change to <root>/<theme>/<path> becomes a
// versioned write (or soft delete) of (theme, path). Checksum dedup in
// Write keeps editor noise (saves without changes) out of the history.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a debounced re-sync of every theme so files
// that moved into a watched tree are picked up.
func Watch(ctx context.Context, db *DB, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer debounces whole-tree re-syncs after renames.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileAll(ctx, db, root, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: watch them and sync any files already inside.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					syncNewDir(db, root, absPath, logger, cb)
					continue
				}
			}

			themeID, rel, ok := splitThemePath(root, absPath)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(absPath)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if _, wErr := db.Write(themeID, rel, data, SyncAuthor, "synced from source"); wErr != nil {
					logger.Warn("watcher: write failed", slog.String("theme", themeID), slog.String("path", rel), slog.String("error", wErr.Error()))
					continue
				}
				logger.Debug("watcher: saved", slog.String("theme", themeID), slog.String("path", rel))
				if cb != nil {
					cb("saved", themeID, rel)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.Delete(themeID, rel); delErr != nil {
					if !errors.Is(delErr, apperr.ErrNotFound) {
						logger.Warn("watcher: delete failed", slog.String("theme", themeID), slog.String("path", rel), slog.String("error", delErr.Error()))
					}
					continue
				}
				logger.Debug("watcher: deleted", slog.String("theme", themeID), slog.String("path", rel))
				if cb != nil {
					cb("deleted", themeID, rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a Create event if it stays under the root. Soft
				// delete the old entry now and re-sync shortly after.
				if delErr := db.Delete(themeID, rel); delErr == nil {
					logger.Debug("watcher: rename old deleted", slog.String("theme", themeID), slog.String("path", rel))
					if cb != nil {
						cb("deleted", themeID, rel)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileAll re-syncs every theme directory under root. Only additions and
// updates are applied; files absent from the source tree are left alone
// because drafts may hold author-created files that never existed on disk.
func reconcileAll(ctx context.Context, db *DB, root string, logger *slog.Logger) {
	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Warn("reconcile: read root failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src, err := source.NewFS(filepath.Join(root, e.Name()))
		if err != nil {
			logger.Warn("reconcile: open theme dir failed", slog.String("theme", e.Name()), slog.String("error", err.Error()))
			continue
		}
		if _, err := SyncFromSource(ctx, db, e.Name(), src, logger); err != nil {
			logger.Warn("reconcile: sync failed", slog.String("theme", e.Name()), slog.String("error", err.Error()))
		}
	}
}

// syncNewDir writes any files found in a newly created directory.
func syncNewDir(db *DB, root, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		themeID, rel, ok := splitThemePath(root, path)
		if !ok {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if _, wErr := db.Write(themeID, rel, data, SyncAuthor, "synced from source"); wErr == nil {
			logger.Debug("watcher: saved from new dir", slog.String("theme", themeID), slog.String("path", rel))
			if cb != nil {
				cb("saved", themeID, rel)
			}
		}
		return nil
	})
}

// splitThemePath maps an absolute path under root to (themeID, theme-relative
// path). Paths directly under root, hidden files, and paths outside the root
// are rejected.
func splitThemePath(root, abs string) (themeID, rel string, ok bool) {
	r, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(r, "..") {
		return "", "", false
	}
	parts := strings.SplitN(filepath.ToSlash(r), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	for _, seg := range strings.Split(filepath.ToSlash(r), "/") {
		if strings.HasPrefix(seg, ".") {
			return "", "", false
		}
	}
	return parts[0], parts[1], true
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
