package key

import "strings"

// Set is a set of known keys. The zero value is the empty set.
// Sets are comparable with ==, which is exact set equality.
type Set struct {
	bits [2]uint64
}

// NewSet returns a set holding the given keys. Unknown keys are dropped.
func NewSet(keys ...Key) Set {
	var s Set
	for _, k := range keys {
		s = s.With(k)
	}
	return s
}

// Has returns true if k is in the set.
func (s Set) Has(k Key) bool {
	if !k.IsKnown() {
		return false
	}
	return s.bits[k/64]&(1<<(k%64)) != 0
}

// With returns a copy of s with k added. Unknown keys are ignored.
func (s Set) With(k Key) Set {
	if k.IsKnown() {
		s.bits[k/64] |= 1 << (k % 64)
	}
	return s
}

// Without returns a copy of s with k removed.
func (s Set) Without(k Key) Set {
	if k.IsKnown() {
		s.bits[k/64] &^= 1 << (k % 64)
	}
	return s
}

// IsEmpty returns true if no keys are set.
func (s Set) IsEmpty() bool {
	return s.bits[0] == 0 && s.bits[1] == 0
}

// Len returns the number of keys in the set.
func (s Set) Len() int {
	n := 0
	for k := Key(1); k < numKeys; k++ {
		if s.Has(k) {
			n++
		}
	}
	return n
}

// Keys returns the members in key order.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, 4)
	for k := Key(1); k < numKeys; k++ {
		if s.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Flags returns the OR of the modifier flag bits for the modifier keys in s.
// Non-modifier members contribute nothing.
func (s Set) Flags() Modifier {
	var m Modifier
	for _, k := range modifierKeys {
		if s.Has(k) {
			m = m.With(ModifierFor(k))
		}
	}
	return m
}

// String returns a representation like "Control+Shift".
func (s Set) String() string {
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, "+")
}
