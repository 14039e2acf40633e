package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile runs fn once, then again each time path is written or
// replaced, until ctx is cancelled. Failures of fn are logged, not returned.
func watchFile(ctx context.Context, path string, fn func() error, logger *slog.Logger) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	rerun := func() {
		if err := fn(); err != nil {
			logger.Error("deref failed", "input", path, "error", err)
		}
	}
	rerun()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !shouldRerun(event, target) {
				continue
			}
			logger.Debug("input changed", "input", path, "op", event.Op.String())
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// shouldRerun reports whether event changes the contents of target.
func shouldRerun(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
