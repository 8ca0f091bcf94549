// Package feedback recognizes events this process posted itself.
//
// Every synthetic event is stamped with a sentinel in its source field
// before it is posted. The operating system delivers posted events back
// through the same tap; a Guard classifies them so the pipeline can pass
// them through without matching or key state changes.
package feedback

import (
	"fmt"

	"github.com/dshills/keytap/internal/input/key"
)

// DefaultTag is the sentinel written into synthetic events ("ktp1").
const DefaultTag int64 = 0x6B747031

// Verdict is the guard's classification of a raw event.
type Verdict uint8

const (
	// Genuine is input from the hardware.
	Genuine Verdict = iota

	// Echo is one of our own synthetic events coming back.
	Echo

	// EchoRepeat is a tagged autorepeat of a key the user is still holding.
	EchoRepeat
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Genuine:
		return "genuine"
	case Echo:
		return "echo"
	case EchoRepeat:
		return "echoRepeat"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// Bypasses returns true if the event skips matching and key state updates.
func (v Verdict) Bypasses() bool {
	return v == Echo || v == EchoRepeat
}

// Guard stamps and recognizes synthetic events.
// A Guard is immutable and safe for concurrent use.
type Guard struct {
	tag int64
}

// Option configures a Guard.
type Option func(*Guard)

// WithTag sets the sentinel value. Zero is ignored.
func WithTag(tag int64) Option {
	return func(g *Guard) {
		if tag != 0 {
			g.tag = tag
		}
	}
}

// New creates a guard using DefaultTag unless overridden.
func New(opts ...Option) *Guard {
	g := &Guard{tag: DefaultTag}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Tag returns the sentinel value.
func (g *Guard) Tag() int64 {
	return g.tag
}

// Classify inspects an incoming event.
//
// Untagged events are Genuine. A tagged key-down autorepeat of a key that
// state reports as held is EchoRepeat; every other tagged event is Echo.
// Classify never modifies state.
func (g *Guard) Classify(ev key.RawEvent, state *key.State) Verdict {
	if ev.SourceTag != g.tag {
		return Genuine
	}
	if ev.Type == key.KeyDown && ev.Autorepeat && state != nil && state.IsHeld(ev.Key()) {
		return EchoRepeat
	}
	return Echo
}

// IsEcho reports whether ev is a plain echo: tagged and not an autorepeat
// of a physically held key.
func (g *Guard) IsEcho(ev key.RawEvent, state *key.State) bool {
	return g.Classify(ev, state) == Echo
}

// Stamp writes the sentinel into a synthetic event.
func (g *Guard) Stamp(ev *key.SyntheticEvent) {
	ev.SourceTag = g.tag
}
