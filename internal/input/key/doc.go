// Package key provides the logical key model for the interception pipeline.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: a logical key (physical key or modifier pseudo-key) with a stable raw code
//   - Set: an exact, comparable set of keys
//   - Combo: a primary key pressed while an exact set of other keys is held
//   - Modifier: the hardware modifier flag bits carried by flags-changed events
//   - State: the running set of keys the hardware reports as held
//
// # Key Names
//
// Keys are named case-sensitively: "Control", "Shift", "Alt", "Windows",
// "LetterX", "Num1", "UpArrow". Unrecognized names and raw codes map to
// Unknown, which never matches anything and is never held.
//
// # Combo Specifications
//
// Combos are written as "+"-joined key names, the last being the primary:
//
//	"LetterC"
//	"Control+LetterX"
//	"Control+Shift+UpArrow"
package key
