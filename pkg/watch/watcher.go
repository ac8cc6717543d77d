package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"tocgen/pkg/utils"
)

// Watcher delivers debounced change notifications for a fixed set of
// files. It watches the parent directories rather than the files
// themselves, so editors that replace a file via rename keep
// triggering events for its path.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *logrus.Entry
	files    map[string]struct{} // absolute watched paths; immutable after construction
	events   chan string
	done     chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewWatcher starts watching the given files. Paths are resolved to
// absolute form and the returned watcher emits absolute paths on
// Events.
func NewWatcher(paths []string, debounce time.Duration, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		log:      log,
		files:    make(map[string]struct{}, len(paths)),
		events:   make(chan string, len(paths)+1),
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}

	// Watch each parent directory once
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve path %q: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}

	go w.loop()

	return w, nil
}

// Events returns the channel of debounced change notifications.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the watcher and cancels pending debounce timers.
// Returns ErrWatcherClosed if already closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return utils.ErrWatcherClosed
	}
	w.closed = true
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

// loop consumes raw fsnotify events until the watcher is closed.
func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("File watcher error: %v", err)
		}
	}
}

// handleEvent filters and debounces a single raw event. Write and
// Create are the triggers: an atomic replace (write temp, rename over
// target) surfaces as Create for the target path. A Remove or a
// rename away only gets logged; the file reappearing triggers Create.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.log.Debugf("Watched file %s moved away, waiting for it to reappear", path)
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}

		select {
		case w.events <- path:
		case <-w.done:
		}
	})
}
