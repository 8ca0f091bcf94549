package key

import "strings"

// Modifier is a hardware modifier flag word as carried by key events.
type Modifier uint64

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 0x00020000

	// ModCtrl indicates the Control key.
	ModCtrl Modifier = 0x00040000

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt Modifier = 0x00080000

	// ModMeta indicates the Windows key (Command on macOS).
	ModMeta Modifier = 0x00100000
)

// modifierKeys lists the tracked modifier pseudo-keys.
var modifierKeys = [...]Key{Shift, Control, Alt, Windows}

// ModifierFor returns the flag bit for a modifier key, or ModNone.
func ModifierFor(k Key) Modifier {
	switch k {
	case Shift:
		return ModShift
	case Control:
		return ModCtrl
	case Alt:
		return ModAlt
	case Windows:
		return ModMeta
	default:
		return ModNone
	}
}

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// Tracked masks m down to the four tracked modifier bits.
func (m Modifier) Tracked() Modifier {
	return m & (ModShift | ModCtrl | ModAlt | ModMeta)
}

// String returns a human-readable representation like "Control+Alt".
func (m Modifier) String() string {
	if m.Tracked() == ModNone {
		return ""
	}

	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Control")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Windows")
	}
	return strings.Join(parts, "+")
}
