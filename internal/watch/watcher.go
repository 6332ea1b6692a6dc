// Package watch reports changes to the set of images in a directory.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imgsort/internal/catalog"
	"imgsort/internal/log"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the directory must stay quiet before a batch
// of changes is delivered.
const DefaultDebounce = 250 * time.Millisecond

// Change is a single file event that may alter the catalog
type Change struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher monitors one directory using fsnotify and delivers debounced
// batches of changes to matching files
type Watcher struct {
	dir      string
	matcher  catalog.Matcher
	debounce time.Duration

	// Channel to deliver change batches
	events chan []Change

	// Channel to signal stop, and closed by the loop when it exits
	stopChan chan struct{}
	done     chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// Lock for running state
	mutex   sync.RWMutex
	running bool
}

// New creates a watcher for dir. A nil matcher accepts every file.
func New(dir string, matcher catalog.Matcher, debounce time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:       dir,
		matcher:   matcher,
		debounce:  debounce,
		events:    make(chan []Change, 1),
		fsWatcher: fsWatcher,
	}, nil
}

// Events returns the channel that delivers change batches. It is closed
// after Stop.
func (w *Watcher) Events() <-chan []Change {
	return w.events
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Start begins the event loop
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if w.done != nil {
		return fmt.Errorf("watcher already stopped")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})

	go w.loop()

	log.LogWithFields(log.F("directory", w.dir)).Info("Watching directory")
	return nil
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) &&
		!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	if w.matcher != nil && !w.matcher.Match(filepath.Base(event.Name)) {
		return false
	}
	// Directories created under the watched dir never become entries
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return false
		}
	}
	return true
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.events)

	var batch []Change
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			batch = append(batch, Change{Path: event.Name, Op: event.Op, Timestamp: time.Now()})
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(batch) == 0 {
				continue
			}
			select {
			case w.events <- batch:
				log.LogWithFields(log.F("directory", w.dir), log.F("changes", len(batch))).Debug("Directory changed")
				batch = nil
			case <-w.stopChan:
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// Stop halts the watcher and closes the events channel
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	<-w.done
	log.LogWithFields(log.F("directory", w.dir)).Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}
