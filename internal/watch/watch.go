// Package watch re-runs scans whenever watched source trees change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
}

// Watcher fires a callback each time Go files under the watched roots
// settle after a change.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange func(ctx context.Context)
}

func New(roots []string, onChange func(ctx context.Context)) *Watcher {
	return &Watcher{
		roots:    roots,
		debounce: debounceInterval,
		onChange: onChange,
	}
}

// Run watches until ctx is cancelled. The callback fires once up front,
// then again after each debounced burst of file events.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := addRecursive(fsw, root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	w.onChange(ctx)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if skipped(ev.Name) {
				continue
			}
			// Newly created directories must be added so events inside
			// them are seen.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fsw, ev.Name); err != nil {
						slog.Debug("watch add failed", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if filepath.Ext(ev.Name) != ".go" {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.onChange(ctx) })

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", err)
		}
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fsw.Add(filepath.Dir(root))
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if skipDirs[name] || (path != root && strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func skipped(path string) bool {
	sep := string(filepath.Separator)
	for dir := range skipDirs {
		if strings.Contains(path, sep+dir+sep) {
			return true
		}
	}
	return false
}
