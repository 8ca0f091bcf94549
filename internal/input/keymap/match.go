package keymap

import (
	"github.com/dshills/keytap/internal/input/key"
)

// Query describes one event for matching.
type Query struct {
	// Key is the event's own logical key.
	Key key.Key

	// Direction is Pressed for key-down and Released for key-up.
	Direction key.Direction

	// Held is the key state with Key itself removed.
	Held key.Set

	// App is the canonical foreground application name.
	App string
}

// Engine finds the first rule in a snapshot matching a query.
// The zero Engine is ready to use and holds no state.
type Engine struct{}

// Match returns the first rule in snap matching q.
//
// A rule matches when its From direction and primary equal the query's,
// its From held set is exactly q.Held, and its scope is global or contains
// q.App. Unknown keys never match.
func (Engine) Match(snap *Snapshot, q Query) (Rule, bool) {
	i := snap.IndexOf(q)
	if i < 0 {
		return Rule{}, false
	}
	return snap.rules[i], true
}

// IndexOf returns the index of the first rule matching q, or -1.
func (s *Snapshot) IndexOf(q Query) int {
	if s == nil || !q.Key.IsKnown() {
		return -1
	}
	for i := range s.rules {
		r := &s.rules[i]
		if r.From.Direction != q.Direction {
			continue
		}
		if r.From.Combo.Primary != q.Key {
			continue
		}
		if r.From.Combo.Modifiers != q.Held {
			continue
		}
		if !r.Scope.Contains(q.App) {
			continue
		}
		return i
	}
	return -1
}
