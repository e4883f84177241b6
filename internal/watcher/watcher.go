package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/conneroisu/unreact/internal/errors"
	"github.com/conneroisu/unreact/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultIgnores lists editor and VCS noise that never triggers a rebuild.
var DefaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/4913", // vim probes directory writability with this file
}

// FileWatcher watches a fixed set of directories recursively and merges their
// notifications into one stream of WatchedEvent.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	dirs    []string
	ignores []string
	filters []FileFilter
	logger  logging.Logger

	events    chan WatchedEvent
	done      chan struct{}
	closeOnce sync.Once
}

// FileFilter determines if a path should produce events
type FileFilter func(path string) bool

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithLogger sets the logger used for watcher errors.
func WithLogger(logger logging.Logger) Option {
	return func(fw *FileWatcher) {
		fw.logger = logger
	}
}

// WithIgnore adds doublestar patterns to the default ignores.
func WithIgnore(patterns ...string) Option {
	return func(fw *FileWatcher) {
		fw.ignores = append(fw.ignores, patterns...)
	}
}

// WithFilter adds a filter; a path must pass every filter.
func WithFilter(filter FileFilter) Option {
	return func(fw *FileWatcher) {
		fw.filters = append(fw.filters, filter)
	}
}

// New starts watching every directory in dirs, recursively. A directory that
// does not exist, or cannot be watched, is a startup-fatal error naming it.
func New(dirs []string, opts ...Option) (*FileWatcher, error) {
	fw := &FileWatcher{
		dirs:    dirs,
		ignores: append([]string(nil), DefaultIgnores...),
		logger:  logging.Discard(),
		events:  make(chan WatchedEvent, 256),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}

	for _, pattern := range fw.ignores {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.NewConfigError(errors.CodeInvalidConfig,
				fmt.Sprintf("invalid ignore pattern %q", pattern))
		}
	}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.NewWatchError(errors.CodeWatchDirMissing, dir, err)
		}
		if !info.IsDir() {
			return nil, errors.NewWatchError(errors.CodeWatchDirMissing, dir,
				fmt.Errorf("not a directory"))
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewWatchError(errors.CodeWatchFailed, strings.Join(dirs, ", "), err)
	}
	fw.watcher = watcher

	for _, dir := range dirs {
		if err := fw.addRecursive(dir); err != nil {
			_ = watcher.Close()
			return nil, errors.NewWatchError(errors.CodeWatchFailed, dir, err)
		}
	}

	go fw.watchLoop()

	return fw, nil
}

// Events returns the merged event stream. It is closed by Close.
func (fw *FileWatcher) Events() <-chan WatchedEvent {
	return fw.events
}

// Close stops the watcher and releases the OS resources.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

// addRecursive adds a directory and all subdirectories to watch
func (fw *FileWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && fw.ignored(path) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

func (fw *FileWatcher) watchLoop() {
	defer close(fw.events)

	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			fw.logger.Warn(context.Background(), err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if fw.ignored(event.Name) {
		return
	}
	for _, filter := range fw.filters {
		if !filter(event.Name) {
			return
		}
	}

	kind := kindOf(event.Op)

	// New directories are not covered by the existing watches
	if kind == EventCreated {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addRecursive(event.Name); err != nil {
				fw.logger.Warn(context.Background(), err, "Failed to watch new directory",
					"path", event.Name)
			}
		}
	}

	select {
	case fw.events <- WatchedEvent{Path: event.Name, Kind: kind}:
	case <-fw.done:
	}
}

func (fw *FileWatcher) ignored(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range fw.ignores {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

func kindOf(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated
	case op.Has(fsnotify.Write):
		return EventModified
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return EventRemoved
	default:
		return EventOther
	}
}
