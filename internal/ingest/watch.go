// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the input directory tree and invokes onChange after the
// filesystem settles. Editors save through temp-file renames, so bursts
// of Create/Write/Rename events are coalesced by the debounce window into
// a single callback; the pipeline is single-writer, one run at a time.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, debounce time.Duration, w io.Writer, onChange func()) error {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}

	var (
		timer   = time.NewTimer(debounce)
		pending = false
	)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories need their own watch; adds on
				// non-directories fail and that is fine.
				_ = addRecursive(watcher, event.Name)
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if !pending {
					fmt.Fprintf(w, "change detected: %s\n", event.Name)
				}
				pending = true
				timer.Reset(debounce)
			}

		case <-timer.C:
			if pending {
				pending = false
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "watch error: %v\n", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// addRecursive registers dir and every subdirectory with the watcher.
// Non-directory paths are ignored.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // vanished mid-walk
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
