package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// modelWatcher reports changes to an OBJ file and, optionally, its
// material library. Directories are watched rather than files so that
// editors which save by rename are still seen.
type modelWatcher struct {
	objPath  string
	watchMTL bool
	relative bool
	debounce time.Duration
	log      *zap.Logger

	watcher *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]bool // cleaned paths that trigger a reload
	dirs  map[string]bool
}

func newModelWatcher(objPath string, watchMTL, relative bool, debounce time.Duration, log *zap.Logger) (*modelWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &modelWatcher{
		objPath:  filepath.Clean(objPath),
		watchMTL: watchMTL,
		relative: relative,
		debounce: debounce,
		log:      log,
		watcher:  watcher,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	if err := w.refresh(""); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// refresh rebuilds the set of watched files. lib is the mtllib argument
// of the last successful parse.
func (w *modelWatcher) refresh(lib string) error {
	files := map[string]bool{w.objPath: true}
	if w.watchMTL {
		for _, candidate := range formats.MaterialCandidates(w.objPath, lib, w.relative) {
			files[filepath.Clean(candidate)] = true
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = files
	for path := range files {
		dir := filepath.Dir(path)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			// Only the OBJ directory is required.
			if dir == filepath.Dir(w.objPath) {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			w.log.Warn("cannot watch material directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.dirs[dir] = true
	}
	return nil
}

// Close stops the watcher. Run closes it on return.
func (w *modelWatcher) Close() error {
	return w.watcher.Close()
}

func (w *modelWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(event.Name)]
}

// Run calls onChange once per burst of relevant events until ctx is
// done. onChange returns the mtllib argument it found so the watched set
// can follow it.
func (w *modelWatcher) Run(ctx context.Context, onChange func() string) error {
	defer w.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			lib := onChange()
			if err := w.refresh(lib); err != nil {
				w.log.Warn("refresh watch list", zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}
