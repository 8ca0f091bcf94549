package input

import (
	"sort"
	"sync"

	"github.com/dshills/keytap/internal/input/key"
)

// ObserverPriority defines the execution order for observers.
// Lower values execute first.
type ObserverPriority int

const (
	// ObserverPriorityHigh runs early in the observer chain.
	ObserverPriorityHigh ObserverPriority = -100
	// ObserverPriorityNormal is the default priority.
	ObserverPriorityNormal ObserverPriority = 0
	// ObserverPriorityLow runs late in the observer chain.
	ObserverPriorityLow ObserverPriority = 100
)

// Observer receives every decision after it is made.
//
// Observers run synchronously on the event path, after the key state has
// been updated. They must return quickly and must not call Process.
type Observer interface {
	ObserveDecision(ev key.RawEvent, d Decision)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev key.RawEvent, d Decision)

// ObserveDecision calls f.
func (f ObserverFunc) ObserveDecision(ev key.RawEvent, d Decision) {
	f(ev, d)
}

// ObserverID uniquely identifies a registered observer.
type ObserverID uint64

// ObserverRegistration holds metadata about a registered observer.
type ObserverRegistration struct {
	ID       ObserverID
	Name     string
	Priority ObserverPriority
	Observer Observer
}

// ObserverManager manages decision observers with priorities and names.
type ObserverManager struct {
	mu        sync.RWMutex
	observers []ObserverRegistration
	nextID    ObserverID
	enabled   bool

	// snapshot is the sorted observer list handed to Run; rebuilt on change.
	snapshot []Observer
}

// NewObserverManager creates an empty observer manager.
func NewObserverManager() *ObserverManager {
	return &ObserverManager{enabled: true}
}

// Register adds an observer with default priority.
func (m *ObserverManager) Register(o Observer) ObserverID {
	return m.RegisterWithOptions(o, "", ObserverPriorityNormal)
}

// RegisterNamed adds an observer with a name for later reference.
// A later registration with the same name replaces the earlier one.
func (m *ObserverManager) RegisterNamed(o Observer, name string) ObserverID {
	return m.RegisterWithOptions(o, name, ObserverPriorityNormal)
}

// RegisterWithOptions adds an observer with all options specified.
func (m *ObserverManager) RegisterWithOptions(o Observer, name string, priority ObserverPriority) ObserverID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name != "" {
		m.removeLocked(func(r ObserverRegistration) bool { return r.Name == name })
	}

	m.nextID++
	m.observers = append(m.observers, ObserverRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Observer: o,
	})
	m.rebuildLocked()
	return m.nextID
}

// Unregister removes an observer by ID.
func (m *ObserverManager) Unregister(id ObserverID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r ObserverRegistration) bool { return r.ID == id })
}

// UnregisterByName removes an observer by name.
func (m *ObserverManager) UnregisterByName(name string) bool {
	if name == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r ObserverRegistration) bool { return r.Name == name })
}

func (m *ObserverManager) removeLocked(match func(ObserverRegistration) bool) bool {
	for i := range m.observers {
		if match(m.observers[i]) {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			m.rebuildLocked()
			return true
		}
	}
	return false
}

// rebuildLocked sorts registrations by priority, keeping registration order
// for equal priorities, and refreshes the run snapshot.
func (m *ObserverManager) rebuildLocked() {
	sort.SliceStable(m.observers, func(i, j int) bool {
		return m.observers[i].Priority < m.observers[j].Priority
	})
	snap := make([]Observer, len(m.observers))
	for i := range m.observers {
		snap[i] = m.observers[i].Observer
	}
	m.snapshot = snap
}

// SetEnabled enables or disables all observers.
func (m *ObserverManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Count returns the number of registered observers.
func (m *ObserverManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}

// List returns all registrations in execution order.
func (m *ObserverManager) List() []ObserverRegistration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ObserverRegistration, len(m.observers))
	copy(result, m.observers)
	return result
}

// Run delivers a decision to every observer in priority order.
func (m *ObserverManager) Run(ev key.RawEvent, d Decision) {
	m.mu.RLock()
	if !m.enabled {
		m.mu.RUnlock()
		return
	}
	observers := m.snapshot
	m.mu.RUnlock()

	for _, o := range observers {
		o.ObserveDecision(ev, d)
	}
}

// Clear removes all observers.
func (m *ObserverManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = nil
	m.snapshot = nil
}
