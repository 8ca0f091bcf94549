// Package watcher watches rule directories for live reload.
//
// The watcher receives file system events from fsnotify, keeps only those
// that pass its filter, coalesces bursts (editors often write a temp file
// and rename it over the original) and delivers each burst as one batch
// once the directory has been quiet for the debounce interval.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by the watcher.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrNotDirectory  = errors.New("not a directory")
)

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the last event for the path arrived.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called with each debounced batch of events, sorted by path.
type Handler func(events []Event)

// ErrorHandler is called when the underlying watcher reports an error.
type ErrorHandler func(err error)

// Filter reports whether a path is interesting.
type Filter func(path string) bool

// Watcher monitors directories for changes.
type Watcher struct {
	mu sync.RWMutex

	fsw  *fsnotify.Watcher
	dirs map[string]bool

	handlers      []Handler
	errorHandlers []ErrorHandler

	filter   Filter
	debounce time.Duration

	running bool
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[string]Event
	timer     *time.Timer
	stopped   bool

	// flushMu is held while a debounced batch is delivered.
	flushMu sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch is delivered.
// Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithFilter sets the path filter. Events for other paths are dropped.
func WithFilter(f Filter) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// New creates a new directory watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		dirs:     make(map[string]bool),
		debounce: 100 * time.Millisecond,
		closeCh:  make(chan struct{}),
		pending:  make(map[string]Event),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WatchDir adds a directory to the watch list.
// Files inside it are reported; subdirectories are not descended into.
func (w *Watcher) WatchDir(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.dirs[absDir] {
		return nil
	}
	if err := w.fsw.Add(absDir); err != nil {
		return err
	}
	w.dirs[absDir] = true
	return nil
}

// Unwatch removes a directory from the watch list.
func (w *Watcher) Unwatch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[absDir] {
		return nil
	}
	delete(w.dirs, absDir)
	return w.fsw.Remove(absDir)
}

// WatchedDirs returns the watched directories in sorted order.
func (w *Watcher) WatchedDirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// OnChange registers a handler for debounced batches.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// OnError registers a handler for watcher errors.
func (w *Watcher) OnError(handler ErrorHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorHandlers = append(w.errorHandlers, handler)
}

// Start begins delivering events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return nil
	}
	w.running = true

	w.wg.Add(1)
	go w.processLoop()
	return nil
}

// Stop stops the watcher and releases its resources.
// Pending events that have not been delivered are discarded. A batch that
// is being delivered when Stop is called finishes before Stop returns, so
// no handler runs afterwards. Handlers must not call Stop.
// It is safe to call Stop multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.running = false
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()

	w.pendingMu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	clear(w.pending)
	w.pendingMu.Unlock()

	w.flushMu.Lock()
	w.flushMu.Unlock() //nolint:staticcheck // waits for an in-flight flush

	return w.fsw.Close()
}

// IsRunning returns whether the watcher is delivering events.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

// handleFSEvent converts and queues an fsnotify event.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op, ok := convertOp(fsEvent.Op)
	if !ok {
		return
	}
	if w.filter != nil && !w.filter(fsEvent.Name) {
		return
	}

	event := Event{Path: fsEvent.Name, Op: op, Time: time.Now()}
	if w.debounce == 0 {
		w.emit([]Event{event})
		return
	}
	w.queueEvent(event)
}

// convertOp maps an fsnotify op to an Operation. Chmod-only events are
// dropped.
func convertOp(fsOp fsnotify.Op) (Operation, bool) {
	switch {
	case fsOp.Has(fsnotify.Remove):
		return OpRemove, true
	case fsOp.Has(fsnotify.Rename):
		return OpRename, true
	case fsOp.Has(fsnotify.Create):
		return OpCreate, true
	case fsOp.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// queueEvent queues an event for debounced delivery and restarts the quiet
// period. Events for the same path are coalesced:
//   - create + write => create
//   - write + write => write
//   - any + remove => remove
//   - remove + create => write (replaced in place)
func (w *Watcher) queueEvent(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.stopped {
		return
	}

	if existing, ok := w.pending[event.Path]; ok {
		event.Op = coalesce(existing.Op, event.Op)
	}
	w.pending[event.Path] = event

	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func coalesce(prev, next Operation) Operation {
	switch {
	case next == OpRemove || next == OpRename:
		return next
	case (prev == OpRemove || prev == OpRename) && next == OpCreate:
		return OpWrite
	case prev == OpCreate:
		return OpCreate
	default:
		return next
	}
}

// flush delivers all pending events as one batch.
func (w *Watcher) flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.pendingMu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := make([]Event, 0, len(w.pending))
	for _, e := range w.pending {
		batch = append(batch, e)
	}
	clear(w.pending)
	w.pendingMu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.emit(batch)
}

// emit calls all handlers with a batch unless the watcher has stopped.
func (w *Watcher) emit(batch []Event) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return
	}
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		safeCall(func() { handler(batch) })
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	handlers := make([]ErrorHandler, len(w.errorHandlers))
	copy(handlers, w.errorHandlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		safeCall(func() { handler(err) })
	}
}

// safeCall runs fn, recovering from panics to keep the watcher running.
func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
