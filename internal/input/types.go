package input

import (
	"fmt"

	"github.com/dshills/keytap/internal/input/feedback"
	"github.com/dshills/keytap/internal/input/key"
	"github.com/dshills/keytap/internal/input/keymap"
)

// Action is what the event tap should do with a raw event.
type Action uint8

const (
	// Pass delivers the event to applications unchanged.
	Pass Action = iota

	// Suppress drops the event. A synthetic replacement may be posted.
	Suppress
)

// String returns "pass" or "suppress".
func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Suppress:
		return "suppress"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// Decision is the outcome of processing one raw event.
type Decision struct {
	// Action is what to do with the raw event.
	Action Action

	// Synthetic is the replacement to post, set only with Suppress.
	Synthetic *key.SyntheticEvent

	// Rule is the rule that fired, or nil.
	Rule *keymap.Rule

	// Verdict is the feedback guard's classification.
	Verdict feedback.Verdict

	// Key is the event's logical key.
	Key key.Key

	// App is the canonical foreground application consulted for matching.
	App string

	// SnapshotID identifies the rule snapshot consulted, if any.
	SnapshotID string
}

// Matched returns true if a rule fired.
func (d Decision) Matched() bool {
	return d.Rule != nil
}

// String returns a one-line description for logs and traces.
func (d Decision) String() string {
	switch {
	case d.Verdict.Bypasses():
		return fmt.Sprintf("%s %s (%s)", d.Action, d.Key, d.Verdict)
	case d.Rule != nil:
		return fmt.Sprintf("%s %s via %s", d.Action, d.Key, d.Rule)
	default:
		return fmt.Sprintf("%s %s", d.Action, d.Key)
	}
}

// AppResolver reports the foreground application.
type AppResolver interface {
	ForegroundApplication() string
}

// AppResolverFunc adapts a function to AppResolver.
type AppResolverFunc func() string

// ForegroundApplication calls f.
func (f AppResolverFunc) ForegroundApplication() string {
	return f()
}

// StaticApp is an AppResolver that always reports the same application.
type StaticApp string

// ForegroundApplication returns the application name.
func (s StaticApp) ForegroundApplication() string {
	return string(s)
}

// Matcher finds the rule for a query. keymap.Engine is the standard Matcher.
type Matcher interface {
	Match(snap *keymap.Snapshot, q keymap.Query) (keymap.Rule, bool)
}
