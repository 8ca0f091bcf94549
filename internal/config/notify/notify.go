// Package notify announces rule reloads to interested components.
//
// A Notifier delivers Change values to subscribed observers, either
// synchronously on the publishing goroutine or through a buffered queue
// drained by a single goroutine. Observers are always called in
// subscription order.
package notify

import (
	"slices"
	"sync"
	"time"
)

// ChangeType represents the type of rule change.
type ChangeType int

const (
	// ChangeReload indicates a new snapshot was published.
	ChangeReload ChangeType = iota

	// ChangeReloadFailed indicates a reload was rejected and the previous
	// snapshot stays active.
	ChangeReloadFailed
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeReload:
		return "reload"
	case ChangeReloadFailed:
		return "reloadFailed"
	default:
		return "unknown"
	}
}

// Change represents a reload event.
type Change struct {
	// Type is the type of change.
	Type ChangeType

	// Source identifies what triggered the reload (a path, "startup",
	// "signal").
	Source string

	// SnapshotID identifies the snapshot now active.
	SnapshotID string

	// Rules is the number of rules in the active snapshot.
	Rules int

	// Warnings are the loader warnings for a successful reload.
	Warnings []string

	// Err is the reason a reload failed.
	Err error

	// Time is when the change was announced.
	Time time.Time
}

// Observer is called when a change occurs.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	id       uint64
	types    []ChangeType
	observer Observer
}

func (s subscriber) wants(t ChangeType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Subscribers in subscription order
	subscribers []subscriber
	nextID      uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool

	now func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous notification delivery.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// WithClock sets the clock used to stamp changes.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		done: make(chan struct{}),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribeTypes(observer)
}

// SubscribeTypes registers an observer for the given change types only.
// With no types it receives every change.
func (n *Notifier) SubscribeTypes(observer Observer, types ...ChangeType) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers = append(n.subscribers, subscriber{
		id:       id,
		types:    slices.Clone(types),
		observer: observer,
	})

	return &Subscription{id: id, notifier: n}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// Notify sends a change to all relevant observers. A zero Time is filled
// in from the notifier's clock.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if change.Time.IsZero() {
		change.Time = n.now()
	}

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliverChange(change)
}

// NotifyReload announces a successfully published snapshot.
func (n *Notifier) NotifyReload(source, snapshotID string, rules int, warnings []string) {
	n.Notify(Change{
		Type:       ChangeReload,
		Source:     source,
		SnapshotID: snapshotID,
		Rules:      rules,
		Warnings:   warnings,
	})
}

// NotifyReloadFailed announces a rejected reload. snapshotID names the
// snapshot that stays active.
func (n *Notifier) NotifyReloadFailed(source, snapshotID string, err error) {
	n.Notify(Change{
		Type:       ChangeReloadFailed,
		Source:     source,
		SnapshotID: snapshotID,
		Err:        err,
	})
}

// Close shuts down the notifier. Buffered changes are delivered before
// Close returns. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.subscribers = slices.DeleteFunc(n.subscribers, func(s subscriber) bool {
		return s.id == id
	})
}

// deliverChange sends a change to all matching observers.
func (n *Notifier) deliverChange(change Change) {
	n.mu.RLock()
	var observers []Observer
	for _, s := range n.subscribers {
		if s.wants(change.Type) {
			observers = append(observers, s.observer)
		}
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(change)
	}
}

// processAsync handles asynchronous notification delivery.
func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliverChange(change)
		case <-n.done:
			// Drain remaining buffered changes
			for {
				select {
				case change := <-n.buffer:
					n.deliverChange(change)
				default:
					return
				}
			}
		}
	}
}
