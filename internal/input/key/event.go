package key

import "fmt"

// EventType is the kind of raw keyboard event reported by the event tap.
type EventType uint8

const (
	// KeyDown is a key press, including autorepeats.
	KeyDown EventType = iota + 1

	// KeyUp is a key release.
	KeyUp

	// FlagsChanged reports a new modifier flag word.
	FlagsChanged
)

// String returns the event type name used on the wire.
func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "keyDown"
	case KeyUp:
		return "keyUp"
	case FlagsChanged:
		return "flagsChanged"
	default:
		return fmt.Sprintf("EventType(%d)", t)
	}
}

// ParseEventType parses a wire name like "keyDown".
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "keyDown":
		return KeyDown, nil
	case "keyUp":
		return KeyUp, nil
	case "flagsChanged":
		return FlagsChanged, nil
	default:
		return 0, fmt.Errorf("unknown event type %q", s)
	}
}

// Direction is whether a combo fires on press or release.
type Direction uint8

const (
	// Pressed fires on key-down.
	Pressed Direction = iota

	// Released fires on key-up.
	Released
)

// String returns "pressed" or "released".
func (d Direction) String() string {
	if d == Released {
		return "released"
	}
	return "pressed"
}

// DirectionOf returns the matching direction for an event type.
// FlagsChanged events have no direction and report false.
func DirectionOf(t EventType) (Direction, bool) {
	switch t {
	case KeyDown:
		return Pressed, true
	case KeyUp:
		return Released, true
	default:
		return Pressed, false
	}
}

// RawEvent is a keyboard event as delivered by the event tap.
type RawEvent struct {
	// KeyCode is the hardware key code.
	KeyCode int64

	// Type is the kind of event.
	Type EventType

	// Flags is the modifier flag word carried by the event.
	Flags Modifier

	// Autorepeat is set on key-down events generated by holding a key.
	Autorepeat bool

	// SourceTag is the user-data field events posted by this process carry.
	SourceTag int64
}

// Key returns the logical key for the event's code.
func (e RawEvent) Key() Key {
	return FromCode(e.KeyCode)
}

// SyntheticEvent describes an event to post in place of a suppressed one.
type SyntheticEvent struct {
	KeyCode   int64
	Direction Direction
	Flags     Modifier
	SourceTag int64
}

// IsKeyDown returns true if the event is a key press.
func (e SyntheticEvent) IsKeyDown() bool {
	return e.Direction == Pressed
}
