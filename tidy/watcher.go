// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tidy

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces bursts of filesystem events (editors often
// write temp file + rename) into one re-analysis.
const defaultDebounce = 500 * time.Millisecond

// =============================================================================
// SOURCE WATCHER
// =============================================================================

// Watcher re-analyzes source files when they change on disk.
//
// Description:
//
//	Recursively watches the given roots, coalesces change bursts with a
//	debounce window, and invokes the callback with the distinct set of
//	changed source files. Hidden directories and common build output
//	directories are skipped.
//
// Thread Safety: Start should only be called once.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange func(ctx context.Context, changed []string)
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

// NewWatcher creates a watcher over the given directory roots.
//
// Inputs:
//
//	roots - Directories to watch recursively.
//	debounce - Coalescing window. Zero means the default (500ms).
//	onChange - Invoked with the changed source files after each window.
//	logger - Logger for structured logging.
//
// Outputs:
//
//	*Watcher - Ready-to-start watcher.
//	error - Non-nil if watcher creation fails.
func NewWatcher(roots []string, debounce time.Duration, onChange func(ctx context.Context, changed []string), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		onChange: onChange,
		watcher:  w,
		logger:   logger,
	}, nil
}

// Start begins watching. Blocks until the context is cancelled; run it in
// a goroutine.
//
// Description:
//
//	Directories created while watching are added on the fly. Only write,
//	create, and rename events for recognized source files trigger the
//	callback.
//
// Inputs:
//
//	ctx - Context for cancellation.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	for _, root := range w.roots {
		w.addTree(root)
	}

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]bool)
	)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories need their own watch.
				if !IsSourceFile(event.Name) {
					w.addTree(event.Name)
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !IsSourceFile(event.Name) {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			pending = make(map[string]bool)
			timerC = nil
			w.logger.Debug("Source files changed",
				slog.Int("count", len(changed)),
			)
			w.onChange(ctx, changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", slog.String("error", err.Error()))
		}
	}
}

// addTree watches a directory and everything under it, skipping hidden
// and build output directories.
func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "build" || name == "out" || name == "node_modules") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Debug("Failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
}
