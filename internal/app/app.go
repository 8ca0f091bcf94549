package app

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/keytap/internal/config"
	"github.com/dshills/keytap/internal/config/notify"
	"github.com/dshills/keytap/internal/config/watcher"
	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/feedback"
	"github.com/dshills/keytap/internal/input/keymap"
)

const decisionLogObserver = "decision-log"

// Options configures the application.
type Options struct {
	// Settings are the decoded daemon settings.
	Settings config.Settings

	// Resolver reports the foreground application. Nil matches global
	// rules only.
	Resolver input.AppResolver

	// Logger receives application logs. Nil discards them.
	Logger *slog.Logger

	// Watch enables reloading when the rules directory changes.
	Watch bool
}

// Application owns the rule store, the pipeline and the reload machinery.
type Application struct {
	mu sync.Mutex

	opts   Options
	logger *slog.Logger

	store    *keymap.Store
	pipeline *input.Pipeline
	notifier *notify.Notifier
	reloader *Reloader
	watcher  *watcher.Watcher

	running atomic.Bool
	done    chan struct{}
}

// New creates an application and loads the rules directory once. A rules
// directory that fails to load is returned as an error, since there is no
// earlier snapshot to fall back to.
func New(opts Options) (*Application, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NullLogger()
	}

	app := &Application{
		opts:     opts,
		logger:   logger,
		store:    keymap.NewStore(),
		notifier: notify.New(),
		done:     make(chan struct{}),
	}

	guard := feedback.New(feedback.WithTag(opts.Settings.Tap.SyntheticTag))
	app.pipeline = input.NewPipeline(app.store,
		input.WithGuard(guard),
		input.WithResolver(opts.Resolver),
	)
	app.pipeline.Observers().RegisterWithOptions(
		DecisionLogger(logger.With("component", "pipeline")),
		decisionLogObserver,
		input.ObserverPriorityLow,
	)

	app.reloader = NewReloader(opts.Settings.Rules.Dir, app.store,
		WithNotifier(app.notifier),
		WithLogger(logger.With("component", "reloader")),
	)
	if _, err := app.reloader.Reload("startup"); err != nil {
		app.notifier.Close()
		return nil, err
	}

	return app, nil
}

// Start begins watching the rules directory if enabled.
func (app *Application) Start() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if !app.opts.Watch {
		return nil
	}

	w, err := watcher.New(
		watcher.WithDebounce(app.opts.Settings.Rules.Debounce),
		watcher.WithFilter(keymap.IsRuleFile),
	)
	if err != nil {
		app.running.Store(false)
		return NewOperationError("watch", app.reloader.Dir(), err)
	}
	w.OnChange(app.reloader.HandleEvents)
	w.OnError(func(err error) {
		app.logger.Warn("watcher error", "dir", app.reloader.Dir(), "error", err)
	})
	if err := w.WatchDir(app.reloader.Dir()); err != nil {
		_ = w.Stop()
		app.running.Store(false)
		return NewOperationError("watch", app.reloader.Dir(), err)
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		app.running.Store(false)
		return NewOperationError("watch", app.reloader.Dir(), err)
	}

	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()

	app.logger.Info("watching rules", "dir", app.reloader.Dir(), "debounce", app.opts.Settings.Rules.Debounce)
	return nil
}

// Shutdown stops the watcher and the notifier. It is safe to call more
// than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()

	if w != nil {
		if err := w.Stop(); err != nil {
			app.logger.Warn("stopping watcher", "error", err)
		}
	}

	if app.running.CompareAndSwap(true, false) {
		app.LogStats()
		close(app.done)
	}
	app.notifier.Close()
}

// Done is closed when a running application shuts down.
func (app *Application) Done() <-chan struct{} {
	return app.done
}

// IsRunning returns whether the application has been started.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// LogStats logs the pipeline metrics at info level.
func (app *Application) LogStats() {
	m := app.pipeline.Metrics().Snapshot()
	app.logger.Info("pipeline stats",
		"events", m.EventsTotal,
		"passes", m.Passes,
		"suppressions", m.Suppressions,
		"echoes", m.Echoes,
		"echoRepeats", m.EchoRepeats,
		"avgLatency", m.AvgLatency,
		"peakLatency", m.PeakLatency,
	)
}

// Pipeline returns the event pipeline.
func (app *Application) Pipeline() *input.Pipeline {
	return app.pipeline
}

// Store returns the rule store.
func (app *Application) Store() *keymap.Store {
	return app.store
}

// Reloader returns the rules reloader.
func (app *Application) Reloader() *Reloader {
	return app.reloader
}

// Notifier returns the reload notifier.
func (app *Application) Notifier() *notify.Notifier {
	return app.notifier
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}
