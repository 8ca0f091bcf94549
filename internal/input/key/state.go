package key

// State tracks the keys the hardware currently reports as held.
//
// State has a single writer: the event path that calls Update once per raw
// event. It is not safe for concurrent use.
type State struct {
	held Set
}

// NewState returns an empty key state.
func NewState() *State {
	return &State{}
}

// Update applies a raw event to the state.
//
// KeyDown inserts the mapped key, KeyUp removes it. FlagsChanged sets each
// tracked modifier from its bit in flags (level-sensitive, not edge). Unknown
// codes are ignored.
func (s *State) Update(code int64, t EventType, flags Modifier) {
	switch t {
	case KeyDown:
		s.held = s.held.With(FromCode(code))
	case KeyUp:
		s.held = s.held.Without(FromCode(code))
	case FlagsChanged:
		for _, k := range modifierKeys {
			if flags.Has(ModifierFor(k)) {
				s.held = s.held.With(k)
			} else {
				s.held = s.held.Without(k)
			}
		}
	}
}

// Held returns the current set of held keys.
func (s *State) Held() Set {
	return s.held
}

// HeldExcluding returns the held set without k.
// This is the set matched against a rule's modifiers, so that an
// autorepeating key never counts as one of its own modifiers.
func (s *State) HeldExcluding(k Key) Set {
	return s.held.Without(k)
}

// IsHeld returns true if k is currently held.
func (s *State) IsHeld(k Key) bool {
	return s.held.Has(k)
}

// Reset clears all held keys.
func (s *State) Reset() {
	s.held = Set{}
}
