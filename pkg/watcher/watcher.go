package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/graphcompare/pkg/dotfile"
	"github.com/ritzau/graphcompare/pkg/finder"
	"github.com/ritzau/graphcompare/pkg/logging"
)

var logger = logging.New("watcher")

// batchWindow groups raw fsnotify events before they reach the debouncer
const batchWindow = 100 * time.Millisecond

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeModified ChangeType = iota
	ChangeTypeCreated
	ChangeTypeRemoved
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeModified:
		return "modified"
	case ChangeTypeCreated:
		return "created"
	case ChangeTypeRemoved:
		return "removed"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches compared graph files, or every .dot file below the
// compared directories, for changes.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool // watched files, absolute
	roots   []string        // watched directory trees, absolute
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the given inputs. A path naming a
// directory watches all .dot files below it; stdin ("-") is skipped.
func NewFileWatcher(paths ...string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		files:   make(map[string]bool),
		events:  make(chan ChangeEvent, 100),
	}

	for _, path := range paths {
		if path == dotfile.StdinPath {
			continue
		}
		if err := fw.add(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return fw, nil
}

func (fw *FileWatcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	if !info.IsDir() {
		fw.files[abs] = true
		if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
		}
		return nil
	}

	fw.roots = append(fw.roots, abs)
	return fw.addTree(abs)
}

// addTree watches dir and its subdirectories; fsnotify is not recursive
func (fw *FileWatcher) addTree(dir string) error {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	logger.Debug("monitoring directories", "root", dir, "count", count)
	return nil
}

// relevant reports whether a changed path is one of the watched inputs
func (fw *FileWatcher) relevant(path string) bool {
	if fw.files[path] {
		return true
	}
	if !strings.EqualFold(filepath.Ext(path), finder.DotExt) {
		return false
	}
	for _, root := range fw.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// Start begins watching for file changes. The events channel is closed
// when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	logger.Info("started watching", "files", len(fw.files), "directories", len(fw.roots))
	go fw.processEvents(ctx)
	return nil
}

func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ChangeTypeRemoved, true
	case op.Has(fsnotify.Create):
		return ChangeTypeCreated, true
	case op.Has(fsnotify.Write):
		return ChangeTypeModified, true
	}
	return 0, false
}

// processEvents filters raw events and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	pending := make(map[ChangeType][]string)
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() bool {
		for _, t := range []ChangeType{ChangeTypeRemoved, ChangeTypeCreated, ChangeTypeModified} {
			paths := pending[t]
			if len(paths) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}:
			case <-ctx.Done():
				return false
			}
		}
		clear(pending)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			path := filepath.Clean(event.Name)
			if event.Op.Has(fsnotify.Create) && len(fw.roots) > 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if err := fw.addTree(path); err != nil {
						logger.Warn("failed to watch new directory", "path", path, "error", err)
					}
					continue
				}
			}

			t, ok := classify(event.Op)
			if !ok || !fw.relevant(path) {
				continue
			}
			logger.Debug("file changed", "path", path, "type", t)
			if !slices.Contains(pending[t], path) {
				pending[t] = append(pending[t], path)
			}
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			if !flush() {
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
