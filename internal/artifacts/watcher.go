package artifacts

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"genspec/internal/logging"
)

// Event reports a settled change to a document in the reports directory.
type Event struct {
	Path string
	Op   string // create, modify, delete, rename
	At   time.Time
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	Created   int
	Modified  int
	Deleted   int
	Delivered int
	Dropped   int
	Errors    int
}

// Watcher watches the reports directory for document changes and delivers
// debounced events on a channel.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	pending     map[string]Event
	debounceDur time.Duration
	events      chan Event
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closed      bool
	stats       WatcherStats
}

// NewWatcher creates a watcher for dir. debounce <= 0 selects 250ms.
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		watcher:     fw,
		dir:         dir,
		pending:     make(map[string]Event),
		debounceDur: debounce,
		events:      make(chan Event, 16),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Events returns the delivery channel. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan Event { return w.events }

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Artifacts("Watcher: watching %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher, waits for the loop to exit and releases the
// underlying inotify handle. Safe to call more than once and without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.closed = true
	w.mu.Unlock()

	close(w.stopCh)
	if wasRunning {
		<-w.doneCh
	} else {
		close(w.events)
	}

	if err := w.watcher.Close(); err != nil {
		logging.ArtifactsWarn("Watcher: error closing: %v", err)
	}
	logging.Artifacts("Watcher: stopped")
}

// Stats returns a copy of the counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.events)

	tick := w.debounceDur / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.ArtifactsWarn("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch filepath.Ext(event.Name) {
	case "." + ExtPDF, "." + ExtXLSX:
	default:
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "modify"
	case event.Op&fsnotify.Remove != 0:
		op = "delete"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return
	}
	logging.ArtifactsDebug("Watcher: %s %s", op, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch op {
	case "create":
		w.stats.Created++
	case "modify":
		w.stats.Modified++
	default:
		w.stats.Deleted++
	}
	// A write following a create is still a create.
	if prev, ok := w.pending[event.Name]; ok && prev.Op == "create" && op == "modify" {
		op = "create"
	}
	w.pending[event.Name] = Event{Path: event.Name, Op: op, At: time.Now()}
}

// flush delivers events that have settled past the debounce window. A full
// channel drops the event; consumers re-list the directory anyway.
func (w *Watcher) flush() {
	w.mu.Lock()
	now := time.Now()
	var ready []Event
	for path, ev := range w.pending {
		if now.Sub(ev.At) >= w.debounceDur {
			ready = append(ready, ev)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, ev := range ready {
		select {
		case w.events <- ev:
			w.mu.Lock()
			w.stats.Delivered++
			w.mu.Unlock()
		default:
			w.mu.Lock()
			w.stats.Dropped++
			w.mu.Unlock()
		}
	}
}
