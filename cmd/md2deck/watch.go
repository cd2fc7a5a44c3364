package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchSources runs convert once, then again after every debounced burst of
// markdown changes under root, until ctx is cancelled. root may be a file or
// a directory. Unchanged sources are no-ops thanks to the ledger.
func watchSources(ctx context.Context, root string, debounce time.Duration, log *zap.Logger, convert func(ctx context.Context)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	info, err := os.Stat(root)
	if err != nil {
		return err
	}

	// A single file is watched through its directory: editors often replace
	// the file on save, which drops a watch on the file itself.
	match := isMarkdown
	if info.IsDir() {
		err = addDirsRecursive(w, root)
	} else {
		abs, _ := filepath.Abs(root)
		match = func(path string) bool {
			p, _ := filepath.Abs(path)
			return p == abs
		}
		err = w.Add(filepath.Dir(root))
	}
	if err != nil {
		return err
	}

	log.Info("watching for changes", zap.String("root", root))
	convert(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Info("watch stopped")
			return nil

		case <-fire:
			convert(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if info.IsDir() && ev.Op&fsnotify.Create != 0 {
				if st, statErr := os.Stat(ev.Name); statErr == nil && st.IsDir() && !isHidden(ev.Name) {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						log.Warn("watch: add new dir failed", zap.String("path", ev.Name), zap.Error(addErr))
					}
					continue
				}
			}

			if !match(ev.Name) || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("source changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", zap.Error(watchErr))
		}
	}
}

// addDirsRecursive adds root and its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
