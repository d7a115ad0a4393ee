package monitor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"absence-desk/internal/models"
)

// DefaultDebounceDelay coalesces bursts of writes to the same file
const DefaultDebounceDelay = 250 * time.Millisecond

// FileSystemMonitor reports changes to files with a given extension in a
// watched directory.
type FileSystemMonitor struct {
	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	extension     string

	mu        sync.Mutex
	callbacks []func(models.AssetEvent)
	timers    map[string]*time.Timer
	started   bool
	stopped   bool
	errorFn   func(error)
}

// NewFileSystemMonitor creates a monitor for files ending in extension
func NewFileSystemMonitor(extension string) (*FileSystemMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileSystemMonitor{
		watcher:       watcher,
		debounceDelay: DefaultDebounceDelay,
		extension:     strings.ToLower(extension),
		timers:        make(map[string]*time.Timer),
	}, nil
}

// SetDebounceDelay changes the debounce window. Call before WatchDirectory.
func (fsm *FileSystemMonitor) SetDebounceDelay(d time.Duration) {
	fsm.mu.Lock()
	defer fsm.mu.Unlock()
	fsm.debounceDelay = d
}

// OnError registers a handler for watcher errors
func (fsm *FileSystemMonitor) OnError(fn func(error)) {
	fsm.mu.Lock()
	defer fsm.mu.Unlock()
	fsm.errorFn = fn
}

// WatchDirectory starts watching a directory for changes
func (fsm *FileSystemMonitor) WatchDirectory(path string, callback func(models.AssetEvent)) error {
	if err := fsm.watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", path, err)
	}

	fsm.mu.Lock()
	defer fsm.mu.Unlock()

	fsm.callbacks = append(fsm.callbacks, callback)
	if !fsm.started {
		fsm.started = true
		go fsm.monitorEvents()
	}
	return nil
}

// StopWatching stops the file system monitoring. It is safe to call twice.
func (fsm *FileSystemMonitor) StopWatching() error {
	fsm.mu.Lock()
	if fsm.stopped {
		fsm.mu.Unlock()
		return nil
	}
	fsm.stopped = true
	for name, timer := range fsm.timers {
		timer.Stop()
		delete(fsm.timers, name)
	}
	fsm.mu.Unlock()

	return fsm.watcher.Close()
}

func (fsm *FileSystemMonitor) monitorEvents() {
	for {
		select {
		case event, ok := <-fsm.watcher.Events:
			if !ok {
				return
			}
			if fsm.extension != "" && strings.ToLower(filepath.Ext(event.Name)) != fsm.extension {
				continue
			}
			fsm.debounce(event)

		case err, ok := <-fsm.watcher.Errors:
			if !ok {
				return
			}
			fsm.mu.Lock()
			errorFn := fsm.errorFn
			fsm.mu.Unlock()
			if errorFn != nil {
				errorFn(err)
			}
		}
	}
}

func (fsm *FileSystemMonitor) debounce(event fsnotify.Event) {
	fsm.mu.Lock()
	defer fsm.mu.Unlock()

	if fsm.stopped {
		return
	}
	if timer, exists := fsm.timers[event.Name]; exists {
		timer.Stop()
	}

	fsm.timers[event.Name] = time.AfterFunc(fsm.debounceDelay, func() {
		fsm.mu.Lock()
		delete(fsm.timers, event.Name)
		stopped := fsm.stopped
		callbacks := append([]func(models.AssetEvent){}, fsm.callbacks...)
		fsm.mu.Unlock()

		if stopped {
			return
		}
		if assetEvent, ok := toAssetEvent(event); ok {
			for _, callback := range callbacks {
				callback(assetEvent)
			}
		}
	})
}

// toAssetEvent converts an fsnotify event, dropping chmod-only events
func toAssetEvent(event fsnotify.Event) (models.AssetEvent, bool) {
	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = "create"
	case event.Has(fsnotify.Write):
		eventType = "modify"
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eventType = "delete"
	default:
		return models.AssetEvent{}, false
	}

	return models.AssetEvent{Type: eventType, Path: event.Name}, true
}
