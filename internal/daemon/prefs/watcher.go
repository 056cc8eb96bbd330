// Package prefs watches the configuration directory and turns file changes
// into typed reload events for the daemon.
package prefs

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/notchly-app/notchly/internal/config"
	"github.com/notchly-app/notchly/internal/models"
)

// EventType represents the type of preference change.
type EventType int

const (
	EventSettingsChanged EventType = iota
	EventTimerMetaChanged
)

// Event represents one debounced preference file change.
type Event struct {
	Type EventType
	Path string
	// Settings is populated for EventSettingsChanged.
	Settings *models.Settings
	// TimerMeta is populated for EventTimerMetaChanged.
	TimerMeta *models.TimerMeta
}

// Watcher watches ~/.notchly/ for settings and timer metadata changes.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a new preference watcher.
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start begins watching the global configuration directory.
func (w *Watcher) Start() error {
	dir, err := config.GlobalDir()
	if err != nil {
		return err
	}
	return w.StartAt(dir)
}

// StartAt begins watching the given directory. Split out for tests.
func (w *Watcher) StartAt(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[prefs] watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename covers atomic writes (write tmp, rename onto target).
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	switch filepath.Base(event.Name) {
	case config.SettingsFileName, config.TimerMetaFileName:
	default:
		return
	}
	w.debounceEvent(event.Name, func() {
		w.processFileChange(event.Name)
	})
}

// debounceEvent collapses bursts of events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(100*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

func (w *Watcher) processFileChange(path string) {
	switch filepath.Base(path) {
	case config.SettingsFileName:
		var settings models.Settings
		if err := config.LoadYAML(path, &settings); err != nil {
			log.Printf("[prefs] failed to reload settings: %v", err)
			return
		}
		w.emit(Event{Type: EventSettingsChanged, Path: path, Settings: &settings})
	case config.TimerMetaFileName:
		var meta models.TimerMeta
		if err := config.LoadYAML(path, &meta); err != nil {
			log.Printf("[prefs] failed to reload timer metadata: %v", err)
			return
		}
		w.emit(Event{Type: EventTimerMetaChanged, Path: path, TimerMeta: &meta})
	}
}

func (w *Watcher) emit(event Event) {
	select {
	case w.eventsChan <- event:
	default:
		log.Printf("[prefs] event channel full, dropping %v", event.Type)
	}
}
