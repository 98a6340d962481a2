package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long Watch waits for a burst of file events to settle before signaling.
var Debounce = 50 * time.Millisecond

// Watch implements ports.Watchable. It signals when a catalog file is created, written,
// removed or renamed. Directories are watched recursively; a file path is watched through
// its parent directory. The channel is closed when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog watcher: %w", err)
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range l.paths {
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			continue
		case err != nil:
			w.Close()
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		case info.IsDir():
			err = addTree(w, dirs, path)
		default:
			files[filepath.Clean(path)] = true
			err = w.Add(filepath.Dir(path))
		}
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("catalog watcher: %w", err)
		}
	}

	relevant := func(ev fsnotify.Event) bool {
		name := filepath.Clean(ev.Name)
		return files[name] || (filepath.Ext(name) == ".hcl" && dirs[filepath.Dir(name)])
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer w.Close()

		timer := time.NewTimer(Debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := addTree(w, dirs, ev.Name); err != nil {
							l.logger.WarnContext(ctx, "catalog watch failed", "path", ev.Name, "error", err)
						}
						// it may already hold catalog files
						timer.Reset(Debounce)
						continue
					}
				}
				if ev.Op == fsnotify.Chmod || !relevant(ev) {
					continue
				}
				timer.Reset(Debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.WarnContext(ctx, "catalog watch failed", "error", err)
			case <-timer.C:
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// addTree watches root and every directory below it.
func addTree(w *fsnotify.Watcher, dirs map[string]bool, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(p); err != nil {
			return err
		}
		dirs[filepath.Clean(p)] = true
		return nil
	})
}
