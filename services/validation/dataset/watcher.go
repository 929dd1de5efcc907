// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher warns when the dataset file changes under a running service.
//
// The presentation order stays pinned to the snapshot loaded at startup;
// a mid-session rewrite of the file would otherwise silently desynchronize
// what reviewers see from what the results reference. New content is picked
// up on the next restart, where the session sequencer merges any new ids
// deterministically.
//
// Safe for a single Start call; run Start in its own goroutine.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback func()
}

// NewWatcher creates a watcher for the dataset file at path.
// callback, if non-nil, runs after the change warning is logged.
func NewWatcher(path string, callback func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, watcher: watcher, callback: callback}, nil
}

// Start watches the dataset file until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.path); err != nil {
		slog.Warn("Failed to watch dataset file",
			"path", w.path,
			"error", err)
		return
	}

	slog.Debug("Started watching dataset file", "path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Dataset watcher error", "error", err)

		case <-ctx.Done():
			slog.Debug("Dataset watcher stopping")
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	slog.Warn("Dataset file changed on disk; presentation order remains pinned to the loaded snapshot",
		"path", w.path,
		"op", event.Op.String())
	if w.callback != nil {
		w.callback()
	}
}
