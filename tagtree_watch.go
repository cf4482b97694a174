package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultWatchDebounce = 200 * time.Millisecond

// LoadTreeFile reads a tree document, choosing the format by extension.
func LoadTreeFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Node{}, fmt.Errorf("read tree: %w", err)
	}
	root, err := LoadTree(string(data), FormatForPath(path))
	if err != nil {
		return Node{}, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// TreeWatcher reloads a tree file into the core whenever it changes on disk.
// The file's directory is watched, so editors that save by rename still
// trigger a reload.
type TreeWatcher struct {
	path     string
	core     *TagTreeCore
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewTreeWatcher creates a watcher for path. Call Run to start it.
func NewTreeWatcher(path string, core *TagTreeCore, logger *zap.Logger) (*TreeWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &TreeWatcher{
		path:     abs,
		core:     core,
		logger:   logger,
		watcher:  watcher,
		debounce: defaultWatchDebounce,
	}, nil
}

// Run processes file events until ctx is done. Bursts of events within the
// debounce window cause a single reload.
func (tw *TreeWatcher) Run(ctx context.Context) error {
	defer tw.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != tw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(tw.debounce)
			} else {
				timer.Reset(tw.debounce)
			}
			fire = timer.C

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return nil
			}
			tw.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := tw.reload(); err != nil {
				tw.logger.Warn("tree file not reloaded", zap.String("path", tw.path), zap.Error(err))
			}
		}
	}
}

// reload parses the file and replaces the core tree. On error the current
// tree is kept.
func (tw *TreeWatcher) reload() error {
	root, err := LoadTreeFile(tw.path)
	if err != nil {
		return err
	}
	tw.core.Replace(root)
	tw.logger.Info("tree file reloaded", zap.String("path", tw.path))
	return nil
}
