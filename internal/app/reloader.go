package app

import (
	"log/slog"
	"sync"

	"github.com/dshills/keytap/internal/config/notify"
	"github.com/dshills/keytap/internal/config/watcher"
	"github.com/dshills/keytap/internal/input/keymap"
)

// Reloader rebuilds the rule snapshot from the rules directory and
// publishes it. A failed reload leaves the active snapshot in place.
type Reloader struct {
	mu sync.Mutex

	dir      string
	loader   *keymap.Loader
	store    *keymap.Store
	notifier *notify.Notifier
	logger   *slog.Logger

	lastErr  error
	reloads  int
	failures int
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithNotifier sets the notifier that receives reload changes.
func WithNotifier(n *notify.Notifier) ReloaderOption {
	return func(r *Reloader) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the reloader logger.
func WithLogger(l *slog.Logger) ReloaderOption {
	return func(r *Reloader) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReloader creates a reloader for dir publishing into store.
func NewReloader(dir string, store *keymap.Store, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		dir:      dir,
		loader:   keymap.NewLoader(),
		store:    store,
		notifier: notify.New(),
		logger:   NullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the rules directory.
func (r *Reloader) Dir() string {
	return r.dir
}

// Reload loads the rules directory and publishes the result. source names
// what triggered the reload and is passed on to notifications.
func (r *Reloader) Reload(source string) (*keymap.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var snap *keymap.Snapshot
	result, err := r.loader.LoadDir(r.dir)
	if err == nil {
		snap = result.Snapshot()
		err = snap.Validate()
	}
	if err != nil {
		active := r.store.Current()
		r.failures++
		r.lastErr = err
		r.logger.Warn("rules rejected, keeping last-known-good",
			"source", source,
			"dir", r.dir,
			"snapshot", active.ID(),
			"error", err,
		)
		r.notifier.NotifyReloadFailed(source, active.ID(), err)
		return nil, NewOperationError("reload", r.dir, err)
	}

	warnings := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		warnings[i] = w.String()
		r.logger.Warn("rule warning", "source", w.Source, "group", w.Group, "index", w.Index, "message", w.Message)
	}

	r.store.Publish(snap)
	r.reloads++
	r.lastErr = nil

	r.logger.Info("rules published",
		"source", source,
		"snapshot", snap.ID(),
		"rules", snap.Len(),
		"files", len(result.Sources),
		"warnings", len(warnings),
	)
	r.notifier.NotifyReload(source, snap.ID(), snap.Len(), warnings)
	return result, nil
}

// HandleEvents reloads once for a batch of watcher events.
func (r *Reloader) HandleEvents(events []watcher.Event) {
	if len(events) == 0 {
		return
	}
	source := events[0].Path
	if len(events) > 1 {
		source = r.dir
	}
	_, _ = r.Reload(source)
}

// LastError returns the error of the most recent reload, or nil if it
// succeeded.
func (r *Reloader) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Counts returns the number of published and rejected reloads.
func (r *Reloader) Counts() (reloads, failures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads, r.failures
}
