package input

import (
	"sync"

	"github.com/dshills/keytap/internal/input/feedback"
	"github.com/dshills/keytap/internal/input/key"
	"github.com/dshills/keytap/internal/input/keymap"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithResolver sets the foreground application resolver.
// Without one, every event is matched as if no application were frontmost,
// so only global rules fire.
func WithResolver(r AppResolver) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithGuard sets the feedback guard.
func WithGuard(g *feedback.Guard) Option {
	return func(p *Pipeline) {
		if g != nil {
			p.guard = g
		}
	}
}

// WithMatcher replaces the match engine.
func WithMatcher(m Matcher) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.matcher = m
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// Pipeline turns raw keyboard events into decisions.
//
// The pipeline owns the key state; nothing else reads or writes it.
// Process calls are serialized. Rule reloads go through the Store and may
// happen concurrently with Process.
type Pipeline struct {
	mu sync.Mutex

	store    *keymap.Store
	state    *key.State
	guard    *feedback.Guard
	matcher  Matcher
	resolver AppResolver

	observers *ObserverManager
	metrics   *Metrics
}

// NewPipeline creates a pipeline reading rules from store.
func NewPipeline(store *keymap.Store, opts ...Option) *Pipeline {
	if store == nil {
		store = keymap.NewStore()
	}
	p := &Pipeline{
		store:     store,
		state:     key.NewState(),
		guard:     feedback.New(),
		matcher:   keymap.Engine{},
		resolver:  StaticApp(""),
		observers: NewObserverManager(),
		metrics:   NewMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decides what to do with a raw event and updates the key state.
func (p *Pipeline) Process(ev key.RawEvent) Decision {
	p.mu.Lock()
	timer := p.metrics.StartTimer()
	d := p.decide(ev)
	timer.Stop(d)
	p.mu.Unlock()

	p.observers.Run(ev, d)
	return d
}

// decide must be called with p.mu held.
func (p *Pipeline) decide(ev key.RawEvent) Decision {
	k := ev.Key()
	d := Decision{
		Action: Pass,
		Key:    k,
		App:    keymap.CanonicalApp(p.resolver.ForegroundApplication()),
	}

	d.Verdict = p.guard.Classify(ev, p.state)
	if d.Verdict.Bypasses() {
		return d
	}

	if dir, ok := key.DirectionOf(ev.Type); ok {
		// One read per event: a concurrent Publish affects the next event,
		// never this one.
		snap := p.store.Current()
		d.SnapshotID = snap.ID()
		d.App = keymap.CanonicalApp(p.resolver.ForegroundApplication())

		q := keymap.Query{
			Key:       k,
			Direction: dir,
			Held:      p.state.HeldExcluding(k),
			App:       d.App,
		}
		if rule, matched := p.matcher.Match(snap, q); matched {
			d.Action = Suppress
			d.Rule = &rule
			d.Synthetic = p.synthesize(rule)
		}
	}

	p.state.Update(ev.KeyCode, ev.Type, ev.Flags)
	return d
}

// synthesize builds the stamped replacement event for a rule.
func (p *Pipeline) synthesize(rule keymap.Rule) *key.SyntheticEvent {
	ev := &key.SyntheticEvent{
		KeyCode:   rule.To.Combo.Primary.Code(),
		Direction: rule.To.Direction,
		Flags:     rule.To.Combo.Modifiers.Flags(),
	}
	p.guard.Stamp(ev)
	return ev
}

// Held returns the keys the pipeline currently considers held.
func (p *Pipeline) Held() key.Set {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Held()
}

// Reset clears the key state, for example after the event tap was
// disabled and key-up events may have been lost.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Reset()
}

// Store returns the rule store.
func (p *Pipeline) Store() *keymap.Store {
	return p.store
}

// Guard returns the feedback guard.
func (p *Pipeline) Guard() *feedback.Guard {
	return p.guard
}

// Observers returns the observer manager.
func (p *Pipeline) Observers() *ObserverManager {
	return p.observers
}

// Metrics returns the metrics collector.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}
