// Package watcher reports changes to the pipeline's input files.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/ic-analyzer/pkg/logging"
)

// ChangeType represents the kind of input that changed
type ChangeType int

const (
	ChangeTypeGraph ChangeType = iota
	ChangeTypeLabels
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeGraph:
		return "graph"
	case ChangeTypeLabels:
		return "labels"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

const batchWindow = 100 * time.Millisecond

// FileWatcher watches the graph and label files of a configuration.
// Directories are watched rather than files so that editors replacing a file are seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // absolute path -> type
	events  chan ChangeEvent
	stop    sync.Once
}

// NewFileWatcher creates a watcher for the given graph and label files
func NewFileWatcher(graphFiles, labelFiles []string) (*FileWatcher, error) {
	files := make(map[string]ChangeType, len(graphFiles)+len(labelFiles))
	for _, set := range []struct {
		paths []string
		kind  ChangeType
	}{{graphFiles, ChangeTypeGraph}, {labelFiles, ChangeTypeLabels}} {
		for _, p := range set.paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("resolving %s: %w", p, err)
			}
			files[abs] = set.kind
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		files:   files,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Dirs returns the sorted directories being watched
func (fw *FileWatcher) Dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for path := range fw.files {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Start begins watching. Events stop and the channel closes when ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for _, dir := range fw.Dirs() {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logging.Info("Watching input files", "files", len(fw.files), "dirs", len(fw.Dirs()))

	go fw.processEvents(ctx)
	return nil
}

// Classify returns the change type of a path, or false when the path is not an input
func (fw *FileWatcher) Classify(path string) (ChangeType, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, false
	}
	kind, ok := fw.files[abs]
	return kind, ok
}

// processEvents batches relevant events by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, kind := range []ChangeType{ChangeTypeGraph, ChangeTypeLabels} {
			if paths := pending[kind]; len(paths) > 0 {
				fw.events <- ChangeEvent{Type: kind, Paths: paths, Timestamp: time.Now()}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				flush()
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			kind, ok := fw.Classify(event.Name)
			if !ok {
				continue
			}
			logging.Trace("input file event", "path", event.Name, "op", event.Op.String(), "type", kind.String())
			pending[kind] = appendUnique(pending[kind], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func appendUnique(paths []string, path string) []string {
	for _, p := range paths {
		if p == path {
			return paths
		}
	}
	return append(paths, path)
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stop.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
